package auth

// Action is an operation whose access depends on the acting user's role.
type Action string

const (
	ActionManageUsers        Action = "manage_users"
	ActionViewBilling        Action = "view_billing"
	ActionManageBilling      Action = "manage_billing"
	ActionManageSettings     Action = "manage_settings"
	ActionRecordConsultation Action = "record_consultation"
)

const (
	RoleDoctor    = "DOCTOR"
	RoleAssistant = "ASSISTANT"
)

// assistantDenied lists the actions an assistant cannot perform. Doctors can
// do everything; assistants handle scheduling and patient registration.
var assistantDenied = map[Action]bool{
	ActionManageUsers:        true,
	ActionViewBilling:        true,
	ActionManageBilling:      true,
	ActionRecordConsultation: true,
}

// Allowed is the single policy check for every role-gated operation.
func Allowed(role string, action Action) bool {
	switch role {
	case RoleDoctor:
		return true
	case RoleAssistant:
		return !assistantDenied[action]
	default:
		return false
	}
}
