package bot

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/mtgleague/leaguebot/internal/service"
)

const commandPrefix = "!"

var commandList = strings.Join([]string{
	"!createleague \"League Name\" @p1 @p2 ...",
	"!loadleague \"League Name\"",
	"!addscores [num_games]",
	"!viewscores",
	"!editscores <week> <game> <@user> <placement>",
	"!addcard <search term>",
	"!pick <number or name>",
	"!removecard",
	"!viewcards <@user>",
	"!finalizeweek",
	"!commands",
}, "\n")

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if b.channelID != "" && m.ChannelID != b.channelID {
		return
	}
	if !strings.HasPrefix(m.Content, commandPrefix) {
		return
	}

	fields := strings.Fields(m.Content)
	command := strings.ToLower(strings.TrimPrefix(fields[0], commandPrefix))
	rest := strings.TrimSpace(strings.TrimPrefix(m.Content, fields[0]))

	msg, err := b.dispatch(command, rest, m)
	if err != nil {
		slog.Warn("command failed", "command", command, "user", m.Author.ID, "error", err)
		b.sendEmbed(m.ChannelID, b.svc.RenderError(err))
		return
	}
	if msg.Title != "" || msg.Description != "" {
		b.sendEmbed(m.ChannelID, msg)
	}
}

func (b *Bot) dispatch(command, rest string, m *discordgo.MessageCreate) (service.Message, error) {
	switch command {
	case "commands":
		return service.Message{Title: "Available Commands", Description: commandList}, nil
	case "createleague":
		return b.handleCreateLeague(rest, m)
	case "loadleague":
		return b.handleLoadLeague(rest)
	case "addscores":
		return b.handleAddScores(rest, m)
	case "viewscores":
		return b.svc.Leaderboard()
	case "editscores":
		return b.handleEditScores(rest, m)
	case "addcard":
		return b.svc.BeginAddCard(m.Author.ID, rest)
	case "pick":
		return b.svc.Pick(m.Author.ID, rest)
	case "removecard":
		return b.svc.BeginRemoveCard(m.Author.ID)
	case "viewcards":
		return b.handleViewCards(m)
	case "finalizeweek":
		return b.svc.FinalizeWeek()
	}
	return service.Message{}, nil
}

func (b *Bot) handleCreateLeague(rest string, m *discordgo.MessageCreate) (service.Message, error) {
	tokens := splitQuoted(rest)
	if len(tokens) < 2 || len(m.Mentions) == 0 {
		return usage(`!createleague "League Name" @p1 @p2 ...`), nil
	}
	ids := make([]string, len(m.Mentions))
	for i, u := range m.Mentions {
		ids[i] = u.ID
	}
	return b.svc.CreateLeague(tokens[0], ids)
}

func (b *Bot) handleLoadLeague(rest string) (service.Message, error) {
	tokens := splitQuoted(rest)
	if len(tokens) != 1 {
		return usage(`!loadleague "League Name"`), nil
	}
	return b.svc.LoadLeague(tokens[0])
}

// handleAddScores posts one vote prompt per outstanding game, seeds each
// with the placement reactions, and registers the message as a session.
func (b *Bot) handleAddScores(rest string, m *discordgo.MessageCreate) (service.Message, error) {
	numGames := 1
	if rest != "" {
		n, err := strconv.Atoi(strings.Fields(rest)[0])
		if err != nil || n < 1 {
			return usage("!addscores [num_games]"), nil
		}
		numGames = n
	}

	start, err := b.svc.StartRound(numGames)
	if err != nil {
		return service.Message{}, err
	}
	for _, game := range start.Games {
		sent := b.sendEmbed(m.ChannelID, service.Message{Title: game.Title, Description: game.Description})
		if sent == nil {
			continue
		}
		for i := 1; i <= start.RosterSize; i++ {
			if err := b.session.MessageReactionAdd(m.ChannelID, sent.ID, keycapEmoji(i)); err != nil {
				slog.Error("seeding reaction", "message_id", sent.ID, "error", err)
			}
		}
		if err := b.svc.RegisterSession(sent.ID, start.Week, game.Key); err != nil {
			return service.Message{}, err
		}
	}
	return service.Message{}, nil
}

func (b *Bot) handleEditScores(rest string, m *discordgo.MessageCreate) (service.Message, error) {
	fields := strings.Fields(rest)
	if len(fields) != 4 || len(m.Mentions) != 1 {
		return usage("!editscores <week> <game> <@user> <placement>"), nil
	}
	week, err1 := strconv.Atoi(fields[0])
	game, err2 := strconv.Atoi(fields[1])
	placement, err3 := strconv.Atoi(fields[3])
	if err1 != nil || err2 != nil || err3 != nil {
		return usage("!editscores <week> <game> <@user> <placement>"), nil
	}
	return b.svc.EditScore(week, game, m.Mentions[0].ID, placement)
}

func (b *Bot) handleViewCards(m *discordgo.MessageCreate) (service.Message, error) {
	target := m.Author.ID
	if len(m.Mentions) > 0 {
		target = m.Mentions[0].ID
	}
	return b.svc.ViewCards(target)
}

func usage(text string) service.Message {
	return service.Message{Title: "Error", Description: "Usage: " + text}
}

// splitQuoted splits on whitespace while keeping double-quoted runs
// together, so league names with spaces survive.
func splitQuoted(s string) []string {
	var tokens []string
	var current strings.Builder
	inQuotes := false
	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}
	for _, r := range s {
		switch {
		case r == '"':
			if inQuotes {
				flush()
			}
			inQuotes = !inQuotes
		case r == ' ' || r == '\t' || r == '\n':
			if inQuotes {
				current.WriteRune(r)
			} else {
				flush()
			}
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return tokens
}
