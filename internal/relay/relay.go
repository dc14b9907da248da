// Package relay forwards classified notifications to a Telegram chat. The bot
// only sends; it never polls for updates.
package relay

import (
	"context"
	"errors"
	"html"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	"rmnotify/internal/event"
	"rmnotify/internal/model"
	logx "rmnotify/pkg/logx"
)

const telegramTextLimit = 4000

type Config struct {
	Token      string
	ChatID     int64
	ThreadID   int
	RatePerSec int
	Timeout    time.Duration
	// APIURL overrides the Bot API endpoint (tests, self-hosted servers).
	APIURL string
	// Location renders record times; nil means UTC.
	Location *time.Location
}

type Relay struct {
	bot      *tele.Bot
	chat     *tele.Chat
	threadID int
	limiter  *rate.Limiter
	timeout  time.Duration
	loc      *time.Location
	log      logx.Logger
}

func New(cfg Config, log logx.Logger) (*Relay, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("relay: telegram token is empty")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("relay: chat id is required")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 1
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	b, err := tele.NewBot(tele.Settings{
		Token:   cfg.Token,
		URL:     cfg.APIURL,
		Offline: true,
		Client:  &http.Client{Timeout: timeout},
	})
	if err != nil {
		return nil, err
	}
	return &Relay{
		bot:      b,
		chat:     &tele.Chat{ID: cfg.ChatID},
		threadID: cfg.ThreadID,
		limiter:  rate.NewLimiter(rate.Limit(rps), rps),
		timeout:  timeout,
		loc:      loc,
		log:      log.With(logx.Component("relay")),
	}, nil
}

func (r *Relay) String() string { return "telegram" }

// Deliver sends rec as an HTML message, split into chunks when long.
func (r *Relay) Deliver(ctx context.Context, kind event.Kind, rec model.NotificationRecord) error {
	text := Format(kind, rec, r.loc)
	for _, chunk := range splitText(text, telegramTextLimit, tele.ModeHTML) {
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}
		opts := &tele.SendOptions{
			ParseMode:             tele.ModeHTML,
			DisableWebPagePreview: true,
			ThreadID:              r.threadID,
		}
		if _, err := r.bot.Send(r.chat, chunk, opts); err != nil {
			return err
		}
	}
	r.log.Debug("relayed notification", logx.String("kind", string(kind)))
	return nil
}

// Format renders "<b>title</b>\nbody\n<i>time</i>" with escaped text.
func Format(kind event.Kind, rec model.NotificationRecord, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	var b strings.Builder
	title := strings.TrimSpace(rec.Title)
	if title == "" {
		title = string(kind)
	}
	b.WriteString("<b>")
	b.WriteString(html.EscapeString(title))
	b.WriteString("</b>\n")
	b.WriteString(html.EscapeString(rec.Body))
	b.WriteString("\n<i>")
	b.WriteString(rec.Time().In(loc).Format("2006-01-02 15:04:05 MST"))
	b.WriteString("</i>")
	return b.String()
}

// maxEntity bounds the length of an HTML entity such as "&#x1F600;".
const maxEntity = 10

// splitText splits s into chunks of at most limit runes, preferring newline
// boundaries and, in HTML mode, never cutting inside a tag or an entity.
func splitText(s string, limit int, parseMode tele.ParseMode) []string {
	rs := []rune(s)
	if len(rs) <= limit {
		return []string{s}
	}

	var out []string
	start := 0
	for start < len(rs) {
		end := start + limit
		if end >= len(rs) {
			end = len(rs)
		} else {
			for i := end - 1; i > start; i-- {
				if rs[i] == '\n' && i-start >= limit/3 {
					end = i + 1
					break
				}
			}
			if parseMode == tele.ModeHTML {
				open, closed := -1, -1
				for i := start; i < end; i++ {
					switch rs[i] {
					case '<':
						open = i
					case '>':
						closed = i
					}
				}
				if open > closed && open > start+1 {
					end = open
				}
				if amp := openEntity(rs[start:end]); amp > 0 {
					end = start + amp
				}
			}
		}

		out = append(out, strings.TrimRight(string(rs[start:end]), "\n"))
		start = end
		for start < len(rs) && rs[start] == '\n' {
			start++
		}
	}
	return out
}

// openEntity returns the index of a trailing '&' whose entity is not
// terminated within chunk, or -1.
func openEntity(chunk []rune) int {
	for i := len(chunk) - 1; i >= 0 && len(chunk)-i <= maxEntity; i-- {
		switch r := chunk[i]; {
		case r == '&':
			return i
		case r == ';' || r == ' ' || r == '\n' || r == '<' || r == '>':
			return -1
		}
	}
	return -1
}
