package utils

import (
	"fmt"
	"lms/config"
	"net/smtp"
	"strings"
)

// Generic Send Email
func SendEmail(to []string, subject string, htmlBody string) error {
	smtpHost := config.AppConfig.SMTPHost
	smtpPort := config.AppConfig.SMTPPort

	from := config.AppConfig.EmailSender
	password := config.AppConfig.EmailPassword

	// MIME basics
	msg := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n"
	msg += fmt.Sprintf("From: Discite Learning <%s>\r\n", from)
	msg += fmt.Sprintf("To: %s\r\n", strings.Join(to, ","))
	msg += fmt.Sprintf("Subject: %s\r\n\r\n", subject)
	msg += htmlBody

	auth := smtp.PlainAuth("", from, password, smtpHost)

	err := smtp.SendMail(smtpHost+":"+smtpPort, auth, from, to, []byte(msg))
	if err != nil {
		fmt.Println("Error sending email:", err)
		return err
	}
	return nil
}

// HTML wrapper shared by all triggers
func getEmailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; box-shadow: 0 4px 15px rgba(0,0,0,0.05); }
			.header { background-color: #1E3A5F; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; letter-spacing: 1px; }
			.content { padding: 40px 30px; color: #1E3A5F; line-height: 1.6; }
			.content h2 { color: #1E3A5F; margin-top: 0; }
			.footer { background-color: #F6F6F6; padding: 20px; text-align: center; font-size: 12px; color: #666666; border-top: 1px solid #E0E0E0; }
			.btn { display: inline-block; padding: 12px 24px; background-color: #2E9E6B; color: #FFFFFF; text-decoration: none; border-radius: 4px; font-weight: bold; margin-top: 20px; }
			.info-box { background: #E8F0FE; padding: 15px; border-radius: 4px; border-left: 4px solid #2E9E6B; margin: 20px 0; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>DISCITE LEARNING</h1>
			</div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">
				&copy; 2026 Discite Learning. All rights reserved.
			</div>
		</div>
	</body>
	</html>
	`, title, bodyContent)
}

// --- Triggers ---

// 1. Welcome / Signup
func SendWelcomeEmail(email, name string) {
	subject := "Welcome to Discite Learning"
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Welcome to <strong>Discite Learning</strong>! Your account has been created.</p>
		<p>Browse the course catalog and start learning. If your organization has licensed courses for you, they will appear in your dashboard automatically.</p>
	`, name)

	go SendEmail([]string{email}, subject, getEmailTemplate("Welcome Onboard!", body))
}

// 2. Course access granted (seat assigned)
func SendAccessGrantedEmail(email, name, courseTitle string) {
	subject := "Course Access Granted: " + courseTitle
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Your organization has granted you access to <strong>%s</strong>.</p>
		<div class="info-box">
			<strong>Next Steps:</strong> Open your dashboard and enroll to start learning.
		</div>
		<a href="#" class="btn">Start Learning</a>
	`, name, courseTitle)

	go SendEmail([]string{email}, subject, getEmailTemplate("Access Granted", body))
}

// 3. Course access revoked
func SendAccessRevokedEmail(email, name, courseTitle, reason string) {
	subject := "Course Access Revoked: " + courseTitle
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Your access to <strong>%s</strong> has been revoked.</p>
		<div style="color: #dc3545; font-weight: bold;">Reason: %s</div>
		<p>Please contact your organization administrator if you believe this is a mistake.</p>
	`, name, courseTitle, reason)

	go SendEmail([]string{email}, subject, getEmailTemplate("Access Revoked", body))
}

// 4. Course completed
func SendCourseCompletedEmail(email, name, courseTitle string) {
	subject := "Congratulations! You completed " + courseTitle
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>You have completed <strong>%s</strong>. Well done!</p>
		<div class="info-box">
			Your certificate is being issued and will appear under <strong>My Certificates</strong> shortly.
		</div>
		<a href="#" class="btn">View Certificates</a>
	`, name, courseTitle)

	go SendEmail([]string{email}, subject, getEmailTemplate("Course Completed", body))
}

// 5. License expiry reminder (to the organization contact)
func SendLicenseExpiryReminder(email, orgName, courseTitle, expiryStr string) {
	subject := "License Expiring Soon: " + courseTitle
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Your organization's license for <strong>%s</strong> expires on <strong>%s</strong>.</p>
		<p>Renew before the expiry date to keep your learners' access uninterrupted.</p>
		<a href="#" class="btn">Renew License</a>
	`, orgName, courseTitle, expiryStr)

	go SendEmail([]string{email}, subject, getEmailTemplate("License Expiring Soon", body))
}

// 6. License expired (to the organization contact)
func SendLicenseExpiredEmail(email, orgName, courseTitle string) {
	subject := "License Expired: " + courseTitle
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Your organization's license for <strong>%s</strong> has expired.</p>
		<p>Learners keep their recorded progress but can no longer be granted new access until the license is renewed.</p>
	`, orgName, courseTitle)

	go SendEmail([]string{email}, subject, getEmailTemplate("License Expired", body))
}
