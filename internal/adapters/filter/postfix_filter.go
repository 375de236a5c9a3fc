package filter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/mikey/trie-spam-filter/internal/config"
	"github.com/mikey/trie-spam-filter/internal/core"
	"github.com/mikey/trie-spam-filter/internal/whitelist"
	"go.uber.org/zap"
)

// DefaultSubjectPrefix is used when subject tagging is enabled without a prefix
const DefaultSubjectPrefix = "[**SPAM**] "

// PostfixFilter implements a Postfix content filter
type PostfixFilter struct {
	service  *core.SpamFilterService
	logger   *zap.Logger
	cfg      config.PostfixConfig
	server   *smtp.Server
	listener net.Listener
}

// NewPostfixFilter creates a new Postfix content filter
func NewPostfixFilter(service *core.SpamFilterService, logger *zap.Logger, cfg config.PostfixConfig) *PostfixFilter {
	if cfg.SubjectPrefix == "" && cfg.ModifySubject {
		cfg.SubjectPrefix = DefaultSubjectPrefix
	}

	return &PostfixFilter{
		service: service,
		logger:  logger,
		cfg:     cfg,
	}
}

// Start starts the Postfix filter service
func (f *PostfixFilter) Start() error {
	f.server = smtp.NewServer(&smtpBackend{filter: f})
	f.server.Addr = f.cfg.ListenAddress
	f.server.Domain = "localhost"
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = 30 * 1024 * 1024
	f.server.MaxRecipients = 50

	listener, err := net.Listen("tcp", f.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", f.cfg.ListenAddress, err)
	}
	f.listener = listener

	f.logger.Info("Postfix filter starting", zap.String("address", listener.Addr().String()))

	go func() {
		if err := f.server.Serve(listener); err != nil && err != smtp.ErrServerClosed {
			f.logger.Error("SMTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Addr returns the address the filter listens on, once started
func (f *PostfixFilter) Addr() net.Addr {
	if f.listener == nil {
		return nil
	}
	return f.listener.Addr()
}

// Stop stops the Postfix filter service
func (f *PostfixFilter) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// ProcessEmail analyzes a single email without SMTP
func (f *PostfixFilter) ProcessEmail(ctx context.Context, email *core.Email) (*core.SpamAnalysisResult, error) {
	return f.service.AnalyzeEmail(ctx, email)
}

// sendToPostfix re-injects the processed email into Postfix
func (f *PostfixFilter) sendToPostfix(sender string, recipients []string, emailData []byte) error {
	postfixAddr := net.JoinHostPort(f.cfg.Address, strconv.Itoa(f.cfg.Port))

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", postfixAddr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to Postfix: %w", err)
	}

	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}

	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			f.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
			continue
		}
		recipientOK = true
	}
	if !recipientOK {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(emailData); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send email data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		// Already accepted by Postfix
		f.logger.Warn("QUIT command failed", zap.Error(err))
	}

	return nil
}

// rewriteMessage returns raw with the verdict headers prepended and, for
// spam, the subject tagged. Verdict headers already present in raw are
// dropped so senders cannot forge them.
func (f *PostfixFilter) rewriteMessage(raw []byte, subject string, result *core.SpamAnalysisResult, analysisErr error) []byte {
	headers, body := splitMessage(raw)

	tagSubject := result.IsSpam && f.cfg.ModifySubject && f.cfg.SubjectPrefix != "" &&
		!strings.HasPrefix(subject, f.cfg.SubjectPrefix)

	drop := map[string]bool{}
	for _, name := range []string{f.cfg.Headers.Spam, f.cfg.Headers.Score, f.cfg.Headers.Confidence, f.cfg.Headers.Words, f.cfg.Headers.Reason, "X-Spam-Analysis-Error"} {
		if name != "" {
			drop[strings.ToLower(name)] = true
		}
	}
	if tagSubject {
		drop["subject"] = true
	}

	var out bytes.Buffer
	writeHeader(&out, f.cfg.Headers.Spam, strconv.FormatBool(result.IsSpam))
	writeHeader(&out, f.cfg.Headers.Score, strconv.FormatFloat(result.Score, 'f', 4, 64))
	writeHeader(&out, f.cfg.Headers.Confidence, strconv.Itoa(result.Confidence))
	if len(result.DetectedWords) > 0 {
		writeHeader(&out, f.cfg.Headers.Words, strings.Join(result.DetectedWords, ", "))
	}
	if result.Explanation != "" {
		writeHeader(&out, f.cfg.Headers.Reason, result.Explanation)
	}
	if analysisErr != nil {
		writeHeader(&out, "X-Spam-Analysis-Error", analysisErr.Error())
	}
	if tagSubject {
		writeHeader(&out, "Subject", f.cfg.SubjectPrefix+subject)
	}

	skipping := false
	for _, line := range splitHeaderLines(headers) {
		if len(line) > 0 && (line[0] == ' ' || line[0] == '\t') {
			// Folded continuation of the previous field
			if !skipping {
				out.Write(line)
			}
			continue
		}
		name := line
		if i := bytes.IndexByte(line, ':'); i >= 0 {
			name = line[:i]
		}
		skipping = drop[strings.ToLower(strings.TrimSpace(string(name)))]
		if !skipping {
			out.Write(line)
		}
	}

	out.WriteString("\r\n")
	out.Write(body)
	return out.Bytes()
}

func writeHeader(w *bytes.Buffer, name, value string) {
	if name == "" {
		return
	}
	value = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ").Replace(value)
	// Header values stay 7-bit; ASCII text passes through unchanged
	fmt.Fprintf(w, "%s: %s\r\n", name, mime.QEncoding.Encode("utf-8", value))
}

// splitMessage separates the header block from the body. The blank
// separator line belongs to neither.
func splitMessage(raw []byte) (headers, body []byte) {
	if i := bytes.Index(raw, []byte("\r\n\r\n")); i >= 0 {
		return raw[:i+2], raw[i+4:]
	}
	if i := bytes.Index(raw, []byte("\n\n")); i >= 0 {
		return raw[:i+1], raw[i+2:]
	}
	return raw, nil
}

// splitHeaderLines splits a header block into lines ending in CRLF
func splitHeaderLines(headers []byte) [][]byte {
	var lines [][]byte
	for _, line := range bytes.SplitAfter(headers, []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		line = bytes.TrimRight(line, "\r\n")
		lines = append(lines, append(line, '\r', '\n'))
	}
	return lines
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	filter *PostfixFilter
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{
		filter:     b.filter,
		recipients: make([]string, 0),
	}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	filter     *PostfixFilter
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = make([]string, 0)
}

// Mail sets the sender address
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data analyzes the message and hands it back to Postfix
func (s *smtpSession) Data(r io.Reader) error {
	logger := s.filter.logger

	rawData, err := io.ReadAll(r)
	if err != nil {
		logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	email, err := ParseEmail(bytes.NewReader(rawData))
	if err != nil {
		logger.Error("Failed to parse email message", zap.Error(err))
		return err
	}
	// Envelope addresses win over headers
	if s.sender != "" {
		email.From = s.sender
	}
	email.To = s.recipients

	senderDomain := whitelist.SenderDomain(email.From)
	if senderDomain == "" {
		senderDomain = "unknown"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, analysisErr := s.filter.service.AnalyzeEmail(ctx, email)
	if analysisErr != nil {
		logger.Error("Failed to analyze email",
			zap.Error(analysisErr),
			zap.String("sender", email.From),
			zap.String("sender_domain", senderDomain))

		// Deliver unflagged rather than lose mail
		result = &core.SpamAnalysisResult{
			Analysis:   core.Analysis{DetectedWords: []string{}},
			ModelUsed:  "error",
			AnalyzedAt: time.Now(),
		}
	}

	if result.IsSpam && s.filter.cfg.BlockSpam {
		logger.Info("Rejecting spam email",
			zap.String("from", email.From),
			zap.String("sender_domain", senderDomain),
			zap.Float64("score", result.Score),
			zap.Strings("detected_words", result.DetectedWords))
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 7, 1},
			Message:      fmt.Sprintf("Rejected as spam (score: %.2f)", result.Score),
		}
	}

	modified := s.filter.rewriteMessage(rawData, email.Subject, result, analysisErr)

	if s.filter.cfg.Enabled {
		if err := s.filter.sendToPostfix(s.sender, s.recipients, modified); err != nil {
			logger.Error("Failed to send email back to Postfix",
				zap.Error(err),
				zap.String("sender", email.From))
			return err
		}
	} else {
		logger.Warn("Postfix forwarding disabled, this is likely a misconfiguration")
	}

	logger.Info("Processed email",
		zap.String("from", email.From),
		zap.String("sender_domain", senderDomain),
		zap.Bool("is_spam", result.IsSpam),
		zap.Float64("score", result.Score),
		zap.String("model", result.ModelUsed))

	return nil
}

// Logout handles SMTP logout
func (s *smtpSession) Logout() error {
	return nil
}
