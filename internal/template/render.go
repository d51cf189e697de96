// internal/template/render.go

// Package template renders the two outbound message kinds as parallel HTML and
// plain-text bodies. Rendering is pure: no clock, no network, no logging. The
// text form carries the same facts as the HTML form so it can stand in as the
// content-integrity fallback.
package template

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"

	"twofactor-service/internal/domain"
)

// Message is a rendered, ready-to-send email payload.
type Message struct {
	Subject  string
	HTMLBody string
	TextBody string
}

type challengeData struct {
	DisplayName string
	Code        string
	Validity    string
}

type securityEventData struct {
	DisplayName string
	Method      string
}

const challengeSubject = "Your verification code"

const securityEventSubject = "Two-factor authentication enabled"

var challengeHTML = htmltemplate.Must(htmltemplate.New("challenge").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin:0;padding:0;background-color:#f4f5f7;font-family:Helvetica,Arial,sans-serif;">
  <table role="presentation" width="100%" cellpadding="0" cellspacing="0" style="background-color:#f4f5f7;padding:24px 0;">
    <tr>
      <td align="center">
        <table role="presentation" width="480" cellpadding="0" cellspacing="0" style="background-color:#ffffff;border-radius:8px;padding:32px;">
          <tr>
            <td style="font-size:18px;color:#1a1a2e;padding-bottom:16px;">
              Hello {{.DisplayName}},
            </td>
          </tr>
          <tr>
            <td style="font-size:14px;color:#44475a;padding-bottom:24px;">
              Use the following code to finish signing in. Do not share it with anyone;
              our staff will never ask for it.
            </td>
          </tr>
          <tr>
            <td align="center" style="padding-bottom:24px;">
              <span style="display:inline-block;font-size:32px;letter-spacing:8px;font-weight:bold;color:#1a1a2e;background-color:#f0f1f5;border-radius:6px;padding:12px 24px;">{{.Code}}</span>
            </td>
          </tr>
          <tr>
            <td style="font-size:13px;color:#6b7280;padding-bottom:8px;">
              This code is valid for {{.Validity}} and can be used once.
            </td>
          </tr>
          <tr>
            <td style="font-size:13px;color:#6b7280;">
              If you did not request a code, you can safely ignore this message.
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>
`))

var challengeText = texttemplate.Must(texttemplate.New("challenge").Parse(`Hello {{.DisplayName}},

Use the following code to finish signing in. Do not share it with anyone;
our staff will never ask for it.

    {{.Code}}

This code is valid for {{.Validity}} and can be used once.

If you did not request a code, you can safely ignore this message.
`))

var securityEventHTML = htmltemplate.Must(htmltemplate.New("security_event").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin:0;padding:0;background-color:#f4f5f7;font-family:Helvetica,Arial,sans-serif;">
  <table role="presentation" width="100%" cellpadding="0" cellspacing="0" style="background-color:#f4f5f7;padding:24px 0;">
    <tr>
      <td align="center">
        <table role="presentation" width="480" cellpadding="0" cellspacing="0" style="background-color:#ffffff;border-radius:8px;padding:32px;">
          <tr>
            <td style="font-size:18px;color:#1a1a2e;padding-bottom:16px;">
              Hello {{.DisplayName}},
            </td>
          </tr>
          <tr>
            <td style="font-size:14px;color:#44475a;padding-bottom:16px;">
              Two-factor authentication is now enabled on your account using
              <strong>{{.Method}}</strong>. From now on you will be asked for a second
              verification step when signing in.
            </td>
          </tr>
          <tr>
            <td style="font-size:13px;color:#6b7280;">
              If you did not make this change, contact support immediately.
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>
`))

var securityEventText = texttemplate.Must(texttemplate.New("security_event").Parse(`Hello {{.DisplayName}},

Two-factor authentication is now enabled on your account using {{.Method}}.
From now on you will be asked for a second verification step when signing in.

If you did not make this change, contact support immediately.
`))

// RenderChallenge renders the OTP challenge message carrying the code and its
// human-readable validity window.
func RenderChallenge(displayName, code string, validity time.Duration) (*Message, error) {
	data := challengeData{
		DisplayName: displayName,
		Code:        code,
		Validity:    humanDuration(validity),
	}

	html, err := execHTML(challengeHTML, data)
	if err != nil {
		return nil, err
	}
	text, err := execText(challengeText, data)
	if err != nil {
		return nil, err
	}

	return &Message{Subject: challengeSubject, HTMLBody: html, TextBody: text}, nil
}

// RenderSecurityEvent renders the 2FA-enabled confirmation for the given method.
func RenderSecurityEvent(displayName string, method domain.NotificationMethod) (*Message, error) {
	data := securityEventData{
		DisplayName: displayName,
		Method:      string(method),
	}

	html, err := execHTML(securityEventHTML, data)
	if err != nil {
		return nil, err
	}
	text, err := execText(securityEventText, data)
	if err != nil {
		return nil, err
	}

	return &Message{Subject: securityEventSubject, HTMLBody: html, TextBody: text}, nil
}

func execHTML(t *htmltemplate.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s html: %w", t.Name(), err)
	}
	return buf.String(), nil
}

func execText(t *texttemplate.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s text: %w", t.Name(), err)
	}
	return buf.String(), nil
}

// humanDuration formats a validity window the way a person reads it,
// e.g. "10 minutes" or "1 hour 30 minutes".
func humanDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	if d < time.Minute {
		return "less than a minute"
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60

	var parts []string
	if hours == 1 {
		parts = append(parts, "1 hour")
	} else if hours > 1 {
		parts = append(parts, fmt.Sprintf("%d hours", hours))
	}
	if minutes == 1 {
		parts = append(parts, "1 minute")
	} else if minutes > 1 {
		parts = append(parts, fmt.Sprintf("%d minutes", minutes))
	}

	out := parts[0]
	if len(parts) > 1 {
		out += " " + parts[1]
	}
	return out
}
