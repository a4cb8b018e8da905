// SPDX-FileCopyrightText: 2024 The go-mailpost Authors
//
// SPDX-License-Identifier: MIT

// Package mailpost composes MIME mail messages and delivers them to a single SMTP server.
//
// A Msg is built with its setter methods and rendered into the exact bytes of the DATA phase by
// Msg.Render. A Client sends a Msg in one SMTP transaction: greeting, EHLO, optional STARTTLS,
// optional AUTH LOGIN, MAIL FROM, RCPT TO and DATA. Failures are reported as *SendError.
package mailpost

// VERSION is used in the default X-Mailer header of the CLI
const VERSION = "0.1.0"
