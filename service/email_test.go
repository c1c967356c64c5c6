package service

import (
	"testing"

	"expensetracker/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEmailService(enabled bool) *EmailService {
	return NewEmailService(&config.EmailConfig{Enabled: enabled, AlertTo: "owner@example.com"})
}

func TestGenerateBudgetAlertEmailBody(t *testing.T) {
	s := newTestEmailService(true)
	alerts := []BudgetStatus{
		{CategoryName: "Food & <Dining>", CategoryColor: "#ef4444", Month: 3, Year: 2025, BudgetAmount: dec("500"), SpentAmount: dec("460"), PercentageUsed: dec("92"), IsNearLimit: true},
		{CategoryName: "Shopping", CategoryColor: "#ec4899", Month: 3, Year: 2025, BudgetAmount: dec("200"), SpentAmount: dec("1250"), PercentageUsed: dec("625"), IsOverBudget: true},
	}

	body := s.generateBudgetAlertEmailBody(alerts, "$")
	assert.Contains(t, body, "Food &amp; &lt;Dining&gt;")
	assert.Contains(t, body, "03/2025")
	assert.Contains(t, body, "$460.00")
	assert.Contains(t, body, "$1,250.00")
	assert.Contains(t, body, "92.0%")
	assert.Contains(t, body, "Near limit")
	assert.Contains(t, body, "Over budget")
}

func TestSendBudgetAlertEmail_Disabled(t *testing.T) {
	s := newTestEmailService(false)
	_, err := s.SendBudgetAlertEmail("", []BudgetStatus{{IsOverBudget: true}}, "$")
	assert.ErrorIs(t, err, ErrEmailDisabled)
}

func TestSendBudgetAlertEmail_NothingToSend(t *testing.T) {
	s := newTestEmailService(true)
	sent, err := s.SendBudgetAlertEmail("", []BudgetStatus{{PercentageUsed: dec("10")}}, "$")
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestSendBudgetAlertEmail_NoRecipient(t *testing.T) {
	s := NewEmailService(&config.EmailConfig{Enabled: true})
	_, err := s.SendBudgetAlertEmail("", []BudgetStatus{{IsOverBudget: true}}, "$")
	assert.Error(t, err)
}
