package filter

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"regexp"
	"strings"

	"github.com/mikey/trie-spam-filter/internal/core"
	"golang.org/x/text/encoding/htmlindex"
)

// maxMultipartDepth bounds recursion into nested multipart bodies
const maxMultipartDepth = 5

var (
	headerDecoder = &mime.WordDecoder{CharsetReader: charsetReader}
	htmlTagRegex  = regexp.MustCompile(`(?s)<[^>]*>`)
)

type headerGetter interface {
	Get(key string) string
}

// charsetReader converts input in the named charset to UTF-8
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", charset, err)
	}
	return enc.NewDecoder().Reader(input), nil
}

// decodeEncodedHeader decodes RFC 2047 encoded words in a header value
func decodeEncodedHeader(value string) (string, error) {
	return headerDecoder.DecodeHeader(value)
}

// ParseEmail reads an RFC 5322 message and extracts what the analyzer needs
func ParseEmail(r io.Reader) (*core.Email, error) {
	msg, err := mail.ReadMessage(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse email message: %w", err)
	}

	body, err := extractTextFromMessage(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text content: %w", err)
	}

	email := &core.Email{
		Headers: make(map[string][]string, len(msg.Header)),
		Body:    body,
	}
	for key, values := range msg.Header {
		email.Headers[key] = values
	}

	if from, err := mail.ParseAddress(msg.Header.Get("From")); err == nil {
		email.From = from.Address
	} else {
		email.From = msg.Header.Get("From")
	}

	if to, err := msg.Header.AddressList("To"); err == nil {
		for _, addr := range to {
			email.To = append(email.To, addr.Address)
		}
	}

	subject := msg.Header.Get("Subject")
	if decoded, err := decodeEncodedHeader(subject); err == nil {
		subject = decoded
	}
	email.Subject = subject

	return email, nil
}

// extractTextFromMessage extracts the readable text of a message. For
// multipart messages text/plain parts are preferred, with HTML parts used
// only when no plain text exists.
func extractTextFromMessage(msg *mail.Message) (string, error) {
	plain, html, err := extractParts(msg.Header, msg.Body, 0)
	if err != nil {
		return "", err
	}
	if plain != "" {
		return plain, nil
	}
	return html, nil
}

func extractParts(header headerGetter, body io.Reader, depth int) (plain string, html string, err error) {
	mediaType, params, err := mime.ParseMediaType(header.Get("Content-Type"))
	if err != nil {
		// No or broken Content-Type means text/plain
		mediaType = "text/plain"
		params = map[string]string{}
	}

	switch {
	case strings.HasPrefix(mediaType, "multipart/"):
		boundary := params["boundary"]
		if boundary == "" || depth >= maxMultipartDepth {
			return "", "", nil
		}
		return extractMultipart(multipart.NewReader(body, boundary), depth)

	case mediaType == "text/plain":
		text, err := decodeBody(header, params["charset"], body)
		return text, "", err

	case mediaType == "text/html":
		text, err := decodeBody(header, params["charset"], body)
		return "", stripHTML(text), err

	default:
		// Attachments and other media are not analyzed
		return "", "", nil
	}
}

func extractMultipart(mr *multipart.Reader, depth int) (string, string, error) {
	var plain, html strings.Builder
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Keep whatever was readable before the broken part
			break
		}

		p, h, err := extractParts(part.Header, part, depth+1)
		if err != nil {
			continue
		}
		appendText(&plain, p)
		appendText(&html, h)
	}
	return plain.String(), html.String(), nil
}

func appendText(sb *strings.Builder, text string) {
	if text == "" {
		return
	}
	if sb.Len() > 0 {
		sb.WriteString("\n")
	}
	sb.WriteString(text)
}

// decodeBody undoes the transfer encoding and converts the charset to UTF-8
func decodeBody(header headerGetter, charset string, body io.Reader) (string, error) {
	switch strings.ToLower(strings.TrimSpace(header.Get("Content-Transfer-Encoding"))) {
	case "base64":
		body = base64.NewDecoder(base64.StdEncoding, body)
	case "quoted-printable":
		body = quotedprintable.NewReader(body)
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}

	charset = strings.ToLower(strings.TrimSpace(charset))
	if charset == "" || charset == "utf-8" || charset == "us-ascii" {
		return string(raw), nil
	}

	reader, err := charsetReader(charset, bytes.NewReader(raw))
	if err != nil {
		return string(raw), nil
	}
	converted, err := io.ReadAll(reader)
	if err != nil {
		return string(raw), nil
	}
	return string(converted), nil
}

func stripHTML(text string) string {
	return strings.TrimSpace(htmlTagRegex.ReplaceAllString(text, " "))
}
