package tui

import (
	"github.com/charmbracelet/bubbles/list"

	"botboard/internal/bots"
)

type botItem struct {
	bot *bots.Bot
}

func (i botItem) Title() string       { return i.bot.Emoji + " " + i.bot.Name }
func (i botItem) Description() string { return i.bot.Description }
func (i botItem) FilterValue() string { return i.bot.ID + " " + i.bot.Name }

func buildBotItems(in []*bots.Bot) []list.Item {
	items := make([]list.Item, 0, len(in))
	for _, bot := range in {
		items = append(items, botItem{bot: bot})
	}
	return items
}
