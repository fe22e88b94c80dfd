// Package telegram serves the planner as a Telegram bot over a webhook.
package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"nutrision/internal/app"
	"nutrision/internal/config"
	"nutrision/internal/metrics"
	"nutrision/internal/planner"
	"nutrision/internal/portion"
	"nutrision/internal/recipe"
	"nutrision/internal/session"
	"nutrision/internal/shopping"
)

// ImagePrefix marks image references that are Telegram file ids.
const ImagePrefix = "telegram:"

const updateTimeout = 2 * time.Minute

var errUsage = errors.New("usage")

// sender is the part of the Telegram API the bot talks to.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot wraps the Telegram API and the application.
type Bot struct {
	api     sender
	app     *app.App
	cfg     *config.Config
	dataDir string
	logger  *zap.Logger
	wg      sync.WaitGroup
}

// NewBot initializes the Telegram Bot and sets the Webhook when one is
// configured.
func NewBot(cfg *config.Config, a *app.App, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	logger.Info("authorized on telegram", zap.String("account", api.Self.UserName))

	if cfg.TelegramWebhookURL != "" {
		wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
		if err != nil {
			return nil, fmt.Errorf("failed to build webhook: %w", err)
		}
		resp, err := api.Request(wh)
		if err != nil {
			return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
		}
		logger.Info("webhook set", zap.String("description", resp.Description))
	}

	return newBot(api, cfg, a, logger), nil
}

func newBot(api sender, cfg *config.Config, a *app.App, logger *zap.Logger) *Bot {
	return &Bot{
		api:     api,
		app:     a,
		cfg:     cfg,
		dataDir: filepath.Dir(cfg.DatabasePath),
		logger:  logger,
	}
}

// WebhookHandler acknowledges every update right away and processes it in
// the background.
func (b *Bot) WebhookHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var update tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			b.logger.Warn("failed to parse update", zap.Error(err))
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), updateTimeout)
			defer cancel()
			b.HandleUpdate(ctx, update)
		}()
		w.WriteHeader(http.StatusOK)
	})
}

// Wait blocks until every update in flight has been processed.
func (b *Bot) Wait() {
	b.wg.Wait()
}

// HandleUpdate processes a single update.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func userKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

func (b *Bot) allowed(from *tgbotapi.User) bool {
	if from == nil {
		return false
	}
	if !b.cfg.IsTelegramUserAllowed(from.ID) {
		b.logger.Warn("unauthorized access attempt", zap.Int64("user_id", from.ID), zap.String("username", from.UserName))
		return false
	}
	return true
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !b.allowed(msg.From) || msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID
	userID := userKey(msg.From.ID)

	if len(msg.Photo) > 0 {
		b.handleError(chatID, b.handlePhoto(ctx, chatID, userID, msg.Photo))
		return
	}

	text := strings.TrimSpace(msg.Text)
	if !msg.IsCommand() {
		if strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://") {
			b.handleError(chatID, b.handleClip(ctx, chatID, userID, text))
			return
		}
		b.reply(chatID, helpText)
		return
	}

	args := strings.TrimSpace(msg.CommandArguments())
	var err error
	switch msg.Command() {
	case "start", "help":
		b.reply(chatID, helpText)
	case "plan":
		err = b.sendDay(ctx, chatID, userID)
	case "new":
		err = b.handleNew(ctx, chatID, userID, strings.EqualFold(args, "ai"))
	case "day":
		err = b.handleDay(ctx, chatID, userID, args)
	case "diet":
		err = b.handleDiet(ctx, chatID, userID, args)
	case "portions":
		err = b.handlePortions(ctx, chatID, userID, args)
	case "recipe":
		err = b.handleRecipe(ctx, chatID, userID, args)
	case "shopping":
		err = b.sendShopping(ctx, chatID, userID)
	case "stores":
		err = b.sendTotals(ctx, chatID, userID)
	case "clip":
		err = b.handleClip(ctx, chatID, userID, args)
	case "reset":
		err = b.handleReset(ctx, chatID, userID)
	case "metrics":
		err = b.handleMetrics(ctx, chatID, msg.From.ID)
	default:
		b.reply(chatID, "Commande inconnue. Tapez /help.")
	}
	b.handleError(chatID, err)
}

func (b *Bot) handleError(chatID int64, err error) {
	switch {
	case err == nil:
	case errors.Is(err, errUsage),
		errors.Is(err, portion.ErrInvalidPortions),
		errors.Is(err, recipe.ErrUnknownDiet),
		errors.Is(err, recipe.ErrRecipeNotFound):
		b.reply(chatID, "⚠️ "+html.EscapeString(err.Error()))
	default:
		b.logger.Error("failed to handle message", zap.Int64("chat_id", chatID), zap.Error(err))
		b.reply(chatID, "❌ Une erreur est survenue, réessayez plus tard.")
	}
}

func (b *Bot) sendDay(ctx context.Context, chatID int64, userID string) error {
	state, err := b.app.Session(ctx, userID)
	if err != nil {
		return err
	}
	stored, err := b.app.CurrentPlan(ctx, userID)
	if err != nil {
		return err
	}
	text, err := formatDay(stored.Plan, state.Day, state.Diet, state.Portions)
	if err != nil {
		return err
	}
	b.reply(chatID, text)
	return nil
}

func (b *Bot) handleNew(ctx context.Context, chatID int64, userID string, useAI bool) error {
	stop := func() {}
	if useAI && b.app.AIEnabled() {
		status, err := b.reply(chatID, "🧑‍🍳 <i>Préparation du menu...</i>")
		if err == nil {
			stop = planner.Progress(ctx, planner.ProgressInterval, func(msg string) {
				b.edit(chatID, status.MessageID, "🧑‍🍳 <i>"+html.EscapeString(msg)+"</i>")
			})
		}
	}

	stored, err := b.app.NewPlan(ctx, userID, useAI)
	stop()
	if err != nil {
		return err
	}
	if useAI && stored.Origin != planner.OriginGenerated {
		b.reply(chatID, "⚠️ La génération n'est pas disponible, voici le menu de la semaine.")
	}
	return b.sendDay(ctx, chatID, userID)
}

func (b *Bot) handleDay(ctx context.Context, chatID int64, userID, args string) error {
	n, err := strconv.Atoi(args)
	if err != nil {
		return fmt.Errorf("%w: /day 1-7", errUsage)
	}
	if _, err := b.app.UpdateSession(ctx, userID, func(s *session.State) error {
		if !s.SelectDay(n - 1) {
			return fmt.Errorf("%w: /day 1-7", errUsage)
		}
		s.View = session.ViewPlanner
		return nil
	}); err != nil {
		return err
	}
	return b.sendDay(ctx, chatID, userID)
}

func (b *Bot) handleDiet(ctx context.Context, chatID int64, userID, args string) error {
	mode, err := recipe.ParseDietMode(args)
	if err != nil {
		return err
	}
	if _, err := b.app.UpdateSession(ctx, userID, func(s *session.State) error {
		s.ToggleDiet(mode)
		return nil
	}); err != nil {
		return err
	}
	return b.sendDay(ctx, chatID, userID)
}

func (b *Bot) handlePortions(ctx context.Context, chatID int64, userID, args string) error {
	update := func(s *session.State) error {
		switch args {
		case "+":
			s.AdjustPortions(1)
		case "-":
			s.AdjustPortions(-1)
		default:
			n, err := strconv.Atoi(args)
			if err != nil {
				return fmt.Errorf("%w: /portions N, + ou -", errUsage)
			}
			if err := portion.Validate(n); err != nil {
				return err
			}
			s.SetPortions(n)
		}
		return nil
	}
	if _, err := b.app.UpdateSession(ctx, userID, update); err != nil {
		return err
	}
	return b.sendDay(ctx, chatID, userID)
}

func (b *Bot) handleRecipe(ctx context.Context, chatID int64, userID, args string) error {
	meal, err := recipe.ParseMealSlot(args)
	if err != nil {
		return fmt.Errorf("%w: /recipe breakfast|lunch|dinner", errUsage)
	}
	state, err := b.app.Session(ctx, userID)
	if err != nil {
		return err
	}
	stored, err := b.app.CurrentPlan(ctx, userID)
	if err != nil {
		return err
	}

	ref := recipe.RecipeRef{Day: state.Day, Meal: meal, Diet: state.Diet}
	r, err := stored.Plan.Recipe(ref)
	if err != nil {
		return err
	}
	text, err := formatRecipe(ref, r, state.Portions)
	if err != nil {
		return err
	}
	if _, err := b.app.UpdateSession(ctx, userID, func(s *session.State) error {
		s.Select(ref)
		return nil
	}); err != nil {
		return err
	}

	b.sendImage(chatID, r)
	b.reply(chatID, text)
	return nil
}

// sendImage sends the custom image of r, if any.
func (b *Bot) sendImage(chatID int64, r *recipe.Recipe) {
	var file tgbotapi.RequestFileData
	switch {
	case strings.HasPrefix(r.ImageURL, ImagePrefix):
		file = tgbotapi.FileID(strings.TrimPrefix(r.ImageURL, ImagePrefix))
	case strings.HasPrefix(r.ImageURL, "https://"), strings.HasPrefix(r.ImageURL, "http://"):
		file = tgbotapi.FileURL(r.ImageURL)
	default:
		return
	}
	photo := tgbotapi.NewPhoto(chatID, file)
	photo.Caption = r.Title
	if _, err := b.api.Send(photo); err != nil {
		b.logger.Warn("failed to send photo", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) handlePhoto(ctx context.Context, chatID int64, userID string, photos []tgbotapi.PhotoSize) error {
	state, err := b.app.Session(ctx, userID)
	if err != nil {
		return err
	}
	if state.Selected == nil {
		return fmt.Errorf("%w: ouvrez d'abord une recette avec /recipe", errUsage)
	}
	stored, err := b.app.CurrentPlan(ctx, userID)
	if err != nil {
		return err
	}

	largest := photos[len(photos)-1]
	updated, err := b.app.SetRecipeImage(ctx, stored.ID, *state.Selected, ImagePrefix+largest.FileID)
	if err != nil {
		return err
	}
	r, err := updated.Plan.Recipe(*state.Selected)
	if err != nil {
		return err
	}
	b.reply(chatID, fmt.Sprintf("📸 Image enregistrée pour <b>%s</b>.", html.EscapeString(r.Title)))
	return nil
}

func (b *Bot) shoppingList(ctx context.Context, userID string) (*shopping.List, *session.State, error) {
	state, err := b.app.Session(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	stored, err := b.app.CurrentPlan(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	list, err := b.app.ShoppingList(stored.Plan, state.Diet, state.Portions)
	if err != nil {
		return nil, nil, err
	}
	return list, state, nil
}

func (b *Bot) sendShopping(ctx context.Context, chatID int64, userID string) error {
	list, _, err := b.shoppingList(ctx, userID)
	if err != nil {
		return err
	}
	state, err := b.app.UpdateSession(ctx, userID, func(s *session.State) error {
		s.View = session.ViewShopping
		return nil
	})
	if err != nil {
		return err
	}

	text, keyboard := formatShopping(list, state, 0)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = keyboard
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send shopping list: %w", err)
	}
	return nil
}

func (b *Bot) sendTotals(ctx context.Context, chatID int64, userID string) error {
	list, _, err := b.shoppingList(ctx, userID)
	if err != nil {
		return err
	}
	b.reply(chatID, formatTotals(list))
	return nil
}

func (b *Bot) handleReset(ctx context.Context, chatID int64, userID string) error {
	if _, err := b.app.UpdateSession(ctx, userID, func(s *session.State) error {
		s.ResetChecked()
		return nil
	}); err != nil {
		return err
	}
	b.reply(chatID, "🧹 Liste de courses décochée.")
	return nil
}

func (b *Bot) handleClip(ctx context.Context, chatID int64, userID, url string) error {
	if url == "" {
		return fmt.Errorf("%w: /clip URL", errUsage)
	}
	status, err := b.reply(chatID, "✂️ <i>Import de la recette...</i>")
	if err != nil {
		return err
	}

	res, err := b.app.ClipRecipe(ctx, url)
	if errors.Is(err, app.ErrClipperUnavailable) {
		b.edit(chatID, status.MessageID, "⚠️ L'import de recettes est indisponible.")
		return nil
	}
	if err != nil {
		b.logger.Warn("recipe import failed", zap.String("url", url), zap.Error(err))
		b.edit(chatID, status.MessageID, "❌ Impossible d'importer cette recette.")
		return nil
	}

	state, err := b.app.Session(ctx, userID)
	if err != nil {
		return err
	}
	ref := recipe.RecipeRef{Day: state.Day, Meal: recipe.Dinner, Diet: state.Diet}
	header := "✅ Recette importée. Ouvrez une recette avec /recipe puis renvoyez le lien pour la remplacer.\n\n"
	if state.Selected != nil {
		ref = *state.Selected
		stored, err := b.app.CurrentPlan(ctx, userID)
		if err != nil {
			return err
		}
		if _, err := b.app.ReplaceRecipe(ctx, stored.ID, ref, res.Recipe); err != nil {
			return err
		}
		header = fmt.Sprintf("✅ Recette importée pour %s.\n\n", html.EscapeString(ref.String()))
	}

	text, err := formatRecipe(ref, res.Recipe, state.Portions)
	if err != nil {
		return err
	}
	b.edit(chatID, status.MessageID, header+text)
	return nil
}

func (b *Bot) handleMetrics(ctx context.Context, chatID, fromID int64) error {
	if b.cfg.AdminTelegramID == 0 || fromID != b.cfg.AdminTelegramID {
		b.reply(chatID, "⛔ <b>Access Denied</b>: Admin only.")
		return nil
	}
	usage, err := b.app.Usage(ctx, 7)
	if err != nil {
		return fmt.Errorf("failed to fetch metrics: %w", err)
	}
	b.reply(chatID, formatUsage(usage, metrics.GetSysHealth(b.dataDir)))
	return nil
}

func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if !b.allowed(query.From) || query.Message == nil || query.Message.Chat == nil {
		return
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		b.logger.Warn("failed to answer callback", zap.Error(err))
	}

	chatID := query.Message.Chat.ID
	userID := userKey(query.From.ID)
	parts := strings.Split(query.Data, "|")

	page, err := strconv.Atoi(safeIndex(parts, 1))
	if err != nil {
		return
	}

	list, state, err := b.shoppingList(ctx, userID)
	if err != nil {
		b.handleError(chatID, err)
		return
	}

	switch parts[0] {
	case "chk":
		idx, err := strconv.Atoi(safeIndex(parts, 2))
		entries := list.Entries()
		if err != nil || idx < 0 || idx >= len(entries) {
			return
		}
		key := entries[idx].Key
		state, err = b.app.UpdateSession(ctx, userID, func(s *session.State) error {
			s.ToggleChecked(key)
			return nil
		})
		if err != nil {
			b.handleError(chatID, err)
			return
		}
	case "pg":
	default:
		return
	}

	text, keyboard := formatShopping(list, state, page)
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, query.Message.MessageID, text, keyboard)
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(edit); err != nil {
		b.logger.Warn("failed to update shopping list", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func safeIndex(parts []string, i int) string {
	if i < len(parts) {
		return parts[i]
	}
	return ""
}

func (b *Bot) reply(chatID int64, text string) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	sent, err := b.api.Send(msg)
	if err != nil {
		b.logger.Warn("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	return sent, err
}

func (b *Bot) edit(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(edit); err != nil {
		b.logger.Warn("failed to edit message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
