// Package media describes every attachment it receives: type, payload
// fields, raw JSON, and how to send the same media back by token or URL.
package media

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/m3rciful/maxbot/core/bot"
	"github.com/m3rciful/maxbot/core/bot/format"
	"github.com/m3rciful/maxbot/core/bot/keyboard"
	"github.com/m3rciful/maxbot/core/bot/router"
	"github.com/m3rciful/maxbot/core/maxapi"
)

// PayloadHelp is the help button payload.
const PayloadHelp = "help"

// Fixed texts.
const (
	AckText     = "✅ Processing..."
	PromptText  = "❓ Send me any file and I will show its parameters!"
	WelcomeText = "📁 *Media bot*\n\n" +
		"I can show information about any file you send me!\n\n" +
		"📌 *Commands:*\n" +
		"• `/help` - show help\n\n" +
		"Just send me any file or image!"
	HelpText = "📚 *Help*\n\n" +
		"**How to use the bot:**\n" +
		"1. Send me any file (image, document, video)\n" +
		"2. I will show everything known about it\n" +
		"3. You will see its token, URL and other parameters\n\n" +
		"**Supported types:**\n" +
		"• Images (JPEG, PNG, GIF)\n" +
		"• Documents (PDF, DOC, TXT)\n" +
		"• Video and audio\n" +
		"• And more"
)

// Setup registers the media bot on b and returns its root handler.
func Setup(b *bot.Bot) bot.HandlerFunc {
	reg := b.Registry
	reg.RegisterCommand("/start", bot.Command{Handler: welcome, Description: "Start the bot"})
	reg.RegisterCommand("/help", bot.Command{Handler: help, Description: "Show help"})
	reg.MustRegisterCallback(PayloadHelp, help)
	reg.SetCallbackNotFound(func(c *bot.Context) error { return c.Answer(AckText) })
	reg.SetAttachmentHandler(Describe)
	reg.SetTextFallback(prompt)
	return router.New(reg, router.Options{AckText: AckText})
}

// Describe sends a description of each attachment followed by a usage hint.
func Describe(c *bot.Context) error {
	m := c.Message()
	if m == nil {
		return nil
	}
	for _, att := range m.Body.Attachments {
		if att.Type == maxapi.AttachmentInlineKeyboard {
			continue
		}
		if err := c.Send(describeText(att)); err != nil {
			return err
		}
		hint, ok := usageHint(att)
		if !ok {
			continue
		}
		if err := c.Send(hint); err != nil {
			return err
		}
	}
	return nil
}

func describeText(att maxapi.Attachment) string {
	var b strings.Builder
	b.WriteString("📦 *Attachment received*\n\n")
	fmt.Fprintf(&b, "**Type:** %s\n\n", att.Type)

	fields := att.Fields()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "**%s:** %s\n", format.EscapeMarkdown(k), format.Code(fieldValue(fields[k])))
	}

	fmt.Fprintf(&b, "\n**Raw JSON:**\n```json\n%s\n```", rawJSON(att.Payload))
	return b.String()
}

func fieldValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	out, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(out)
}

func rawJSON(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "{}"
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return strings.ReplaceAll(string(raw), "```", "'''")
	}
	return strings.ReplaceAll(buf.String(), "```", "'''")
}

// usageHint explains how to reuse the attachment. A file id wins over a
// token; a URL is only shown when neither is present.
func usageHint(att maxapi.Attachment) (string, bool) {
	p, err := att.DecodeMedia()
	if err != nil {
		return "", false
	}
	token := p.Token
	if p.FileID != "" {
		token = p.FileID
	}
	switch {
	case token != "":
		return tokenHint(att.Type, token), true
	case p.URL != "":
		return urlHint(p.URL), true
	}
	return "", false
}

func tokenHint(t maxapi.AttachmentType, token string) string {
	ctor, caption := "FileAttachment", "Here is the file"
	switch {
	case strings.Contains(string(t), string(maxapi.AttachmentImage)) || t == "photo":
		ctor, caption = "ImageAttachment", "Here is the image"
	case t == maxapi.AttachmentVideo:
		ctor, caption = "VideoAttachment", "Here is the video"
	case t == maxapi.AttachmentAudio:
		ctor, caption = "AudioAttachment", "Here is the audio"
	}
	return "📋 *Token found!*\n\n" +
		"You can use it to send this file again:\n\n" +
		"```go\n" +
		fmt.Sprintf("p := maxapi.NewTextMessage(chatID, %q)\n", caption) +
		fmt.Sprintf("p.Attachments = []maxapi.AttachmentRequest{maxapi.%s(%q)}\n", ctor, token) +
		"_, err := client.SendMessage(ctx, p)\n" +
		"```"
}

func urlHint(u string) string {
	return "🔗 *URL found!*\n\n" +
		fmt.Sprintf("**Link:** %s\n\n", u) +
		"You can open it in a browser or download it in code:\n\n" +
		"```go\n" +
		fmt.Sprintf("resp, err := http.Get(%q)\n", u) +
		"```"
}

func welcome(c *bot.Context) error {
	return c.SendKeyboard(WelcomeText, keyboard.Rows(keyboard.Row(keyboard.Callback("❓ Help", PayloadHelp))))
}

func help(c *bot.Context) error {
	return c.Send(HelpText)
}

func prompt(c *bot.Context) error {
	return c.Send(PromptText)
}
