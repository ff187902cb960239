package bots

import (
	"botboard/internal/relay"
	"botboard/internal/utils"
)

// Constructor builds one bot variant.
type Constructor func() *Bot

// variantTable lists every compiled-in variant, lexical by slug. The order
// here is the discovery order and drives the dashboard layout directly.
var variantTable = []Constructor{
	NewAssistantBot,
	NewDocumentationBot,
	NewInternWikiBot,
	NewTicketsBot,
}

// Resolver supplies webhook resolution at discovery time.
type Resolver interface {
	ResolveWebhook(id, secretsKey string) (relay.Endpoint, string)
	ResolveArchive(fallback relay.Endpoint) string
}

// Registry is the process-wide bot mapping. Built once, read-only after
// construction; safe to share across concurrent readers without locking.
type Registry struct {
	order []string
	byID  map[string]*Bot
}

// Discover instantiates every variant in the table, resolves webhooks, and
// returns the deduplicated mapping. Finding zero usable bots is not an
// error; the dashboard shows a notice instead.
func Discover(cfg Resolver, logger *utils.Logger) *Registry {
	return DiscoverFrom(variantTable, cfg, logger)
}

// DiscoverFrom builds a registry from an explicit variant table. Variants
// with an empty or invalid id are excluded. When two variants share an id
// the later one wins; the entry keeps its original position.
func DiscoverFrom(table []Constructor, cfg Resolver, logger *utils.Logger) *Registry {
	reg := &Registry{byID: make(map[string]*Bot)}
	for _, construct := range table {
		bot := construct()
		if bot.ID == "" {
			logger.Warnf("skipping bot with empty id (name: %q)", bot.Name)
			continue
		}
		if err := bot.Validate(); err != nil {
			logger.Warnf("skipping bot %s: %v", bot.ID, err)
			continue
		}

		bot.Webhook, bot.WebhookKey = cfg.ResolveWebhook(bot.ID, bot.SecretsKey)
		if bot.HasArchive {
			bot.ArchiveEndpoint = cfg.ResolveArchive(bot.Webhook)
		}

		if _, exists := reg.byID[bot.ID]; exists {
			logger.Debugf("duplicate bot id %s, later variant wins", bot.ID)
		} else {
			reg.order = append(reg.order, bot.ID)
		}
		reg.byID[bot.ID] = bot
		logger.Infof("registered bot %s (webhook: %v)", bot.ID, bot.Webhook.URL != "")
	}
	return reg
}

func (r *Registry) Get(id string) (*Bot, bool) {
	bot, ok := r.byID[id]
	return bot, ok
}

// List returns all bots in discovery order.
func (r *Registry) List() []*Bot {
	result := make([]*Bot, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.byID[id])
	}
	return result
}

func (r *Registry) Len() int {
	return len(r.order)
}
