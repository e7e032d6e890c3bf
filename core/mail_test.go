package core

import (
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailMessage_Render(t *testing.T) {
	tests := []struct {
		name     string
		msg      EmailMessage
		wantText []string
		wantHTML []string
	}{
		{
			name: "report card",
			msg: EmailMessage{
				TemplateName: "report_card",
				TemplateData: map[string]interface{}{
					"StudentName":  "Priya Sharma",
					"SchoolName":   "ZPHS Hanamkonda",
					"Assessment":   "Formative Assessment 1",
					"AcademicYear": "2024-2025",
					"Percentage":   "77.5%",
					"Grade":        "B",
					"Attendance":   "90.9%",
				},
			},
			wantText: []string{"Priya Sharma", "ZPHS Hanamkonda", "77.5% - Grade B", "School ERP"},
			wantHTML: []string{"Priya Sharma", "Formative Assessment 1"},
		},
		{
			name: "password reset",
			msg: EmailMessage{
				TemplateName: "password_reset",
				TemplateData: map[string]interface{}{"Name": "Ravi Kumar", "UID": "abc", "Token": "tok"},
			},
			wantText: []string{"Hello Ravi Kumar", "http://localhost:3000/password-reset/abc/tok", "School ERP"},
			wantHTML: []string{"http://localhost:3000/password-reset/abc/tok"},
		},
		{
			name:     "plain body",
			msg:      EmailMessage{BodyStr: "hello"},
			wantText: []string{"hello"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.msg
			msg.To = []mail.Address{{Address: "parent@example.com"}}
			require.NoError(t, msg.Render("School ERP", "http://localhost:3000"))
			assert.True(t, msg.HasContent())
			for _, s := range tt.wantText {
				assert.Contains(t, msg.TextContent, s)
			}
			for _, s := range tt.wantHTML {
				assert.Contains(t, msg.HTMLContent, s)
			}
		})
	}
}
