package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/mtgleague/leaguebot/internal/config"
	"github.com/mtgleague/leaguebot/internal/service"
)

const embedColor = 0x5865F2 // blurple

type Bot struct {
	session   *discordgo.Session
	svc       *service.Service
	guildID   string
	channelID string
}

func New(cfg config.Discord, svc *service.Service) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsMessageContent

	b := &Bot{
		session:   session,
		svc:       svc,
		guildID:   cfg.GuildID,
		channelID: cfg.ChannelID,
	}
	session.AddHandler(b.onMessageCreate)
	session.AddHandler(b.onReactionAdd)
	return b, nil
}

func (b *Bot) Start(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("opening gateway connection: %w", err)
	}
	slog.Info("connected to discord", "user", b.session.State.User.Username)
	<-ctx.Done()
	return b.session.Close()
}

// DisplayName resolves a user id to their guild nickname, falling back to
// their account name, falling back to the raw id.
func (b *Bot) DisplayName(userID string) string {
	member, err := b.session.State.Member(b.guildID, userID)
	if err != nil {
		member, err = b.session.GuildMember(b.guildID, userID)
		if err != nil {
			return userID
		}
	}
	if member.Nick != "" {
		return member.Nick
	}
	if member.User != nil {
		if member.User.GlobalName != "" {
			return member.User.GlobalName
		}
		return member.User.Username
	}
	return userID
}

// SendReport posts a plain scheduler report to the league channel.
func (b *Bot) SendReport(text string) error {
	_, err := b.session.ChannelMessageSend(b.channelID, text)
	if err != nil {
		slog.Error("sending report", "error", err)
	}
	return err
}

func (b *Bot) sendEmbed(channelID string, msg service.Message) *discordgo.Message {
	now := time.Now().UTC().Format(time.RFC3339)
	embed := &discordgo.MessageEmbed{
		Title:       msg.Title,
		Description: msg.Description,
		Color:       embedColor,
		Timestamp:   now,
	}
	if name := b.svc.LeagueName(); name != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: "League: " + name}
	}
	sent, err := b.session.ChannelMessageSendEmbed(channelID, embed)
	if err != nil {
		slog.Error("sending embed", "title", msg.Title, "error", err)
		return nil
	}
	return sent
}

func (b *Bot) onReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if r.UserID == s.State.User.ID {
		return
	}
	placement, ok := placementFromEmoji(r.Emoji.Name)
	if !ok {
		return
	}
	messages, err := b.svc.HandleVote(r.MessageID, r.UserID, placement)
	if err != nil {
		slog.Error("handling vote", "message_id", r.MessageID, "error", err)
		b.sendEmbed(r.ChannelID, b.svc.RenderError(err))
		return
	}
	for _, msg := range messages {
		b.sendEmbed(r.ChannelID, msg)
	}
}

// placementFromEmoji extracts the digit from a keycap reaction like "3⃣".
// Only real keycap sequences count; a custom emoji whose name happens to
// start with a digit is not a vote. The optional variation selector covers
// clients that send the emoji-presentation form.
func placementFromEmoji(name string) (int, bool) {
	runes := []rune(name)
	if len(runes) == 3 && runes[1] == '️' {
		runes = []rune{runes[0], runes[2]}
	}
	if len(runes) != 2 || runes[1] != '⃣' {
		return 0, false
	}
	if runes[0] < '1' || runes[0] > '9' {
		return 0, false
	}
	return int(runes[0] - '0'), true
}

func keycapEmoji(n int) string {
	return fmt.Sprintf("%d⃣", n)
}
