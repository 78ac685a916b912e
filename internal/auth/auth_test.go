package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestAllowed(t *testing.T) {
	cases := []struct {
		role   string
		action Action
		want   bool
	}{
		{RoleDoctor, ActionManageUsers, true},
		{RoleDoctor, ActionViewBilling, true},
		{RoleDoctor, ActionManageBilling, true},
		{RoleDoctor, ActionManageSettings, true},
		{RoleDoctor, ActionRecordConsultation, true},
		{RoleAssistant, ActionManageUsers, false},
		{RoleAssistant, ActionViewBilling, false},
		{RoleAssistant, ActionManageBilling, false},
		{RoleAssistant, ActionRecordConsultation, false},
		{RoleAssistant, ActionManageSettings, true},
		{"INTERN", ActionManageSettings, false},
		{"", ActionViewBilling, false},
	}

	for _, tc := range cases {
		if got := Allowed(tc.role, tc.action); got != tc.want {
			t.Errorf("Allowed(%q, %q) = %v, want %v", tc.role, tc.action, got, tc.want)
		}
	}
}

func TestTokenRoundTrip(t *testing.T) {
	userID := uuid.New()

	token, err := IssueToken("secret", userID, "Dr. House", RoleDoctor, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := ParseToken("secret", token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != userID {
		t.Errorf("user id = %s, want %s", claims.UserID, userID)
	}
	if claims.Role != RoleDoctor {
		t.Errorf("role = %q, want DOCTOR", claims.Role)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := IssueToken("secret", uuid.New(), "Dr. House", RoleDoctor, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ParseToken("other-secret", token); err != ErrInvalidToken {
		t.Errorf("got %v, want ErrInvalidToken", err)
	}
}

func TestParseTokenExpired(t *testing.T) {
	token, err := IssueToken("secret", uuid.New(), "Dr. House", RoleDoctor, -time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ParseToken("secret", token); err != ErrInvalidToken {
		t.Errorf("got %v, want ErrInvalidToken for an expired token", err)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct-horse")
	if err != nil {
		t.Fatal(err)
	}
	if hash == "correct-horse" {
		t.Fatal("password not hashed")
	}

	if err := CheckPassword(hash, "correct-horse"); err != nil {
		t.Errorf("correct password rejected: %v", err)
	}
	if err := CheckPassword(hash, "wrong"); err != ErrWrongPassword {
		t.Errorf("wrong password: got %v, want ErrWrongPassword", err)
	}
}
