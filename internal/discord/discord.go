package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"github.com/deusflow/newsrelay/internal/news"
	"github.com/deusflow/newsrelay/internal/relay"
)

// MaxDescriptionRunes is Discord's limit for an embed description.
const MaxDescriptionRunes = 4096

// restAPI is the part of *discordgo.Session the client calls after startup.
type restAPI interface {
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Client posts digests into category channels.
type Client struct {
	session  *discordgo.Session
	api      restAPI
	channels map[news.Category]string
	log      *slog.Logger

	ready     chan struct{}
	readyOnce sync.Once
}

// New creates a bot session. The connection is opened by Open.
func New(token string, channels map[news.Category]string, log *slog.Logger) (*Client, error) {
	if token == "" {
		return nil, errors.New("discord token is empty")
	}
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds

	c := newClient(s, channels, log)
	c.session = s
	s.AddHandler(c.onReady)
	return c, nil
}

func newClient(api restAPI, channels map[news.Category]string, log *slog.Logger) *Client {
	return &Client{
		api:      api,
		channels: channels,
		log:      log,
		ready:    make(chan struct{}),
	}
}

// Open connects the gateway websocket.
func (c *Client) Open() error {
	if err := c.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	if c.session == nil {
		return nil
	}
	return c.session.Close()
}

// Ready is closed once the first READY event arrives.
func (c *Client) Ready() <-chan struct{} {
	return c.ready
}

func (c *Client) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	c.readyOnce.Do(func() {
		user := ""
		if r != nil && r.User != nil {
			user = r.User.Username
		}
		c.log.Info("bot is ready", "user", user)
		close(c.ready)
	})
}

// ResolveChannel returns the channel configured for a category if the bot can
// see it.
func (c *Client) ResolveChannel(ctx context.Context, category news.Category) (string, bool) {
	id := c.channels[category]
	if id == "" {
		return "", false
	}
	if c.session != nil && c.session.State != nil {
		if _, err := c.session.State.Channel(id); err == nil {
			return id, true
		}
	}
	if _, err := c.api.Channel(id, discordgo.WithContext(ctx)); err != nil {
		c.log.Warn("channel lookup failed", "category", category, "channel_id", id, "err", err)
		return "", false
	}
	return id, true
}

// Send posts msg as an embed. A refusal by Discord is reported as
// relay.ErrPermissionDenied.
func (c *Client) Send(ctx context.Context, channelID string, msg relay.Message) error {
	_, err := c.api.ChannelMessageSendEmbed(channelID, Embed(msg), discordgo.WithContext(ctx))
	if err != nil {
		return mapError(err)
	}
	c.log.Debug("embed sent", "channel_id", channelID, "category", msg.Category)
	return nil
}

// Embed converts a message to Discord's embed shape.
func Embed(msg relay.Message) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       msg.Title,
		Description: truncate(msg.Description, MaxDescriptionRunes),
		Color:       msg.Color,
	}
	if !msg.Timestamp.IsZero() {
		embed.Timestamp = msg.Timestamp.UTC().Format(time.RFC3339)
	}
	if msg.Footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: msg.Footer}
	}
	if msg.Thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: msg.Thumbnail}
	}
	return embed
}

func mapError(err error) error {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) {
		denied := restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeMissingPermissions
		if restErr.Response != nil && restErr.Response.StatusCode == http.StatusForbidden {
			denied = true
		}
		if denied {
			return fmt.Errorf("%w: %w", relay.ErrPermissionDenied, err)
		}
	}
	return fmt.Errorf("send embed: %w", err)
}

// truncate keeps s under max runes, cutting on a line break when one is
// close enough to the limit.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	const ellipsis = "…"
	runes := []rune(s)
	cut := string(runes[:max-1])
	if idx := strings.LastIndex(cut, "\n"); idx > len(cut)/2 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " \n") + ellipsis
}
