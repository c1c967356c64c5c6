package service

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"expensetracker/config"

	"gopkg.in/gomail.v2"
)

// ErrEmailDisabled 邮件服务未启用
var ErrEmailDisabled = errors.New("邮件服务未启用，请配置 EXPENSETRACKER_EMAIL_ENABLED=true")

// EmailService 邮件服务
type EmailService struct {
	cfg *config.EmailConfig
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// SendBudgetAlertEmail 发送预算提醒邮件，statuses 为空时不发送
// 返回实际包含在邮件中的预算数
func (s *EmailService) SendBudgetAlertEmail(to string, statuses []BudgetStatus, currencySymbol string) (int, error) {
	if !s.cfg.Enabled {
		return 0, ErrEmailDisabled
	}
	if to == "" {
		to = s.cfg.AlertTo
	}
	if to == "" {
		return 0, fmt.Errorf("未指定收件人，请配置 email.alert_to")
	}

	alerts := AlertingStatuses(statuses)
	if len(alerts) == 0 {
		return 0, nil
	}

	subject := fmt.Sprintf("Budget alert: %d budget(s) need attention", len(alerts))
	body := s.generateBudgetAlertEmailBody(alerts, currencySymbol)

	if err := s.sendEmail(to, subject, body); err != nil {
		return 0, err
	}
	return len(alerts), nil
}

// generateBudgetAlertEmailBody 生成预算提醒邮件内容
func (s *EmailService) generateBudgetAlertEmailBody(alerts []BudgetStatus, currencySymbol string) string {
	var rows strings.Builder
	for _, a := range alerts {
		state, color := "Near limit", "#f59e0b"
		if a.IsOverBudget {
			state, color = "Over budget", "#dc2626"
		}
		fmt.Fprintf(&rows, `
            <tr>
                <td><span class="dot" style="background: %s;"></span>%s</td>
                <td>%02d/%d</td>
                <td>%s</td>
                <td>%s</td>
                <td>%s%%</td>
                <td style="color: %s; font-weight: 600;">%s</td>
            </tr>`,
			html.EscapeString(a.CategoryColor),
			html.EscapeString(a.CategoryName),
			a.Month, a.Year,
			FormatCurrency(currencySymbol, a.BudgetAmount),
			FormatCurrency(currencySymbol, a.SpentAmount),
			a.PercentageUsed.StringFixed(1),
			color, state)
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; background: #f5f5f5; margin: 0; padding: 20px; }
        .container { max-width: 640px; margin: 0 auto; background: #fff; border-radius: 12px; overflow: hidden; box-shadow: 0 4px 20px rgba(0,0,0,0.1); }
        .header { background: linear-gradient(135deg, #f59e0b, #dc2626); color: white; padding: 30px; text-align: center; }
        .header h1 { margin: 0; font-size: 24px; }
        .content { padding: 30px; }
        table { width: 100%%; border-collapse: collapse; }
        th, td { text-align: left; padding: 10px 8px; border-bottom: 1px solid #e5e7eb; font-size: 14px; }
        th { color: #6b7280; font-weight: 600; }
        .dot { display: inline-block; width: 10px; height: 10px; border-radius: 50%%; margin-right: 8px; }
        .footer { background: #f8f9fa; padding: 20px 30px; text-align: center; color: #6c757d; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Budget Alert</h1>
        </div>
        <div class="content">
            <p>The following budgets have reached their alert threshold:</p>
            <table>
                <tr><th>Category</th><th>Period</th><th>Budget</th><th>Spent</th><th>Used</th><th>Status</th></tr>%s
            </table>
        </div>
        <div class="footer">
            <p>Sent automatically by Expense Tracker</p>
        </div>
    </div>
</body>
</html>
`, rows.String())
}

// sendEmail 发送邮件
func (s *EmailService) sendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.cfg.Username, s.cfg.From))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}

	return nil
}
