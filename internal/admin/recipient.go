package admin

import (
	"strings"

	"github.com/stemsi/certify-backend/internal/model"
)

// RecipientEmail resolves the account to notify about an appointment: the
// stored email, then an id/phone value that is itself an email, then the
// single user whose full name matches. Ambiguous names resolve to nobody.
func RecipientEmail(users []model.AdminUserRecord, appt model.AdminAppointmentRecord) (string, bool) {
	if e := strings.TrimSpace(appt.UserEmail); e != "" {
		return strings.ToLower(e), true
	}
	if v := strings.TrimSpace(appt.IDOrPhone); strings.Contains(v, "@") {
		return strings.ToLower(v), true
	}

	name := strings.TrimSpace(appt.FullName)
	if name == "" {
		return "", false
	}
	match := ""
	for _, u := range users {
		if !strings.EqualFold(strings.TrimSpace(u.FullName), name) {
			continue
		}
		if match != "" {
			return "", false
		}
		match = u.Email
	}
	return match, match != ""
}

// RecipientInbox resolves the inbox to notify about an appointment. The
// role comes from the matching account; unknown addresses get a user inbox.
func RecipientInbox(users []model.AdminUserRecord, appt model.AdminAppointmentRecord) (model.InboxKey, bool) {
	email, ok := RecipientEmail(users, appt)
	if !ok {
		return model.InboxKey{}, false
	}
	k := model.InboxKey{Role: model.RoleUser, Email: email}
	for _, u := range users {
		if u.Email == email {
			k.Role = u.Role
			break
		}
	}
	return k, true
}
