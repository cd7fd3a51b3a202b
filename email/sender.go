package email

import (
	"crypto/tls"
	"fmt"
	"mime"
	"net/smtp"
	"sort"
	"strings"

	"FleetDesk/config"
)

// Message is an e-mail to send.
type Message struct {
	To      []string
	CC      []string
	BCC     []string
	Subject string
	Body    string
	IsHTML  bool
}

// Send delivers message through the configured SMTP server
func Send(cfg config.SMTPConfig, message Message) error {
	if len(message.To) == 0 {
		return fmt.Errorf("no recipient")
	}

	// Build email headers
	headers := make(map[string]string)
	headers["From"] = fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromEmail)
	headers["To"] = strings.Join(message.To, ", ")
	headers["Subject"] = mime.QEncoding.Encode("utf-8", message.Subject)

	if len(message.CC) > 0 {
		headers["Cc"] = strings.Join(message.CC, ", ")
	}

	if message.IsHTML {
		headers["MIME-Version"] = "1.0"
		headers["Content-Type"] = "text/html; charset=UTF-8"
	} else {
		headers["Content-Type"] = "text/plain; charset=UTF-8"
	}

	messageBody := buildMessage(headers, message.Body)

	// Set up authentication
	auth := smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Server)

	// Create recipient list (to, cc, bcc)
	var recipients []string
	recipients = append(recipients, message.To...)
	recipients = append(recipients, message.CC...)
	recipients = append(recipients, message.BCC...)

	// Set up connection
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server, cfg.Port)

	// Send the email
	if cfg.TLSEnabled {
		// Create TLS config
		tlsConfig := &tls.Config{
			ServerName:         cfg.Server,
			InsecureSkipVerify: cfg.SkipTLSCheck,
		}

		// Connect to the SMTP server with TLS
		conn, err := tls.Dial("tcp", serverAddr, tlsConfig)
		if err != nil {
			return fmt.Errorf("failed to connect to SMTP server: %v", err)
		}
		defer conn.Close()

		// Create SMTP client
		client, err := smtp.NewClient(conn, cfg.Server)
		if err != nil {
			return fmt.Errorf("failed to create SMTP client: %v", err)
		}
		defer client.Close()

		// Authenticate
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %v", err)
		}

		// Set the sender and recipients
		if err = client.Mail(cfg.FromEmail); err != nil {
			return fmt.Errorf("failed to set sender: %v", err)
		}

		for _, recipient := range recipients {
			if err = client.Rcpt(recipient); err != nil {
				return fmt.Errorf("failed to add recipient %s: %v", recipient, err)
			}
		}

		// Send the email body
		w, err := client.Data()
		if err != nil {
			return fmt.Errorf("failed to open data connection: %v", err)
		}

		_, err = w.Write([]byte(messageBody))
		if err != nil {
			return fmt.Errorf("failed to write email body: %v", err)
		}

		err = w.Close()
		if err != nil {
			return fmt.Errorf("failed to close data connection: %v", err)
		}

		return client.Quit()
	}

	// Standard SMTP, upgraded with STARTTLS when the server offers it
	return smtp.SendMail(
		serverAddr,
		auth,
		cfg.FromEmail,
		recipients,
		[]byte(messageBody),
	)
}

// buildMessage writes the headers in a stable order followed by the body.
func buildMessage(headers map[string]string, body string) string {
	keys := make([]string, 0, len(headers))
	for key := range headers {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var messageBody strings.Builder
	for _, key := range keys {
		messageBody.WriteString(fmt.Sprintf("%s: %s\r\n", key, headers[key]))
	}
	messageBody.WriteString("\r\n")
	messageBody.WriteString(body)
	return messageBody.String()
}
