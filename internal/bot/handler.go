// Package bot routes Telegram updates into the expense pipeline and
// formats the outcomes back as chat replies.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gastos/internal/core"
	"gastos/internal/extract"
	"gastos/internal/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is the slice of *tgbotapi.BotAPI the handler needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// ExpenseRecorder is the pipeline surface, implemented by
// *services.ExpenseService.
type ExpenseRecorder interface {
	RecordMessage(ctx context.Context, msg services.InboundMessage) (core.Expense, error)
	DeleteByMessageID(ctx context.Context, userID, messageID int64) (bool, error)
	Report(ctx context.Context, userID int64) ([]byte, string, error)
}

// CategoryManager exposes the catalog operations reachable from chat
// commands.
type CategoryManager interface {
	EnsureRegistered(ctx context.Context, userID int64) error
	Allowed(ctx context.Context, userID int64) ([]string, error)
	AddGlobal(ctx context.Context, name string) (bool, error)
	Link(ctx context.Context, userID int64, name string) (bool, error)
	Unlink(ctx context.Context, userID int64, name string) (bool, error)
}

type Handler struct {
	api     Sender
	svc     ExpenseRecorder
	catalog CategoryManager
	ownerID int64 // 0 = open to everyone
}

func NewHandler(api Sender, svc ExpenseRecorder, catalog CategoryManager, ownerID int64) *Handler {
	return &Handler{
		api:     api,
		svc:     svc,
		catalog: catalog,
		ownerID: ownerID,
	}
}

// HandleUpdate processes one Telegram update. Errors are absorbed here and
// turned into user-facing replies; one user's failure never propagates to
// another update.
func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	isEdit := false
	if msg == nil {
		msg = update.EditedMessage
		isEdit = true
	}
	if msg == nil || msg.From == nil || msg.Text == "" {
		return
	}

	userID := msg.From.ID
	chatID := msg.Chat.ID

	if h.ownerID != 0 && userID != h.ownerID {
		h.reply(ctx, chatID, msg.MessageID, accessDeniedMessage)
		return
	}

	if msg.IsCommand() {
		// Commands act on the conversation, not on the message carrying
		// them: a recorded expense edited into "/delete" would otherwise
		// execute the command and silently keep its stored record.
		if isEdit {
			slog.InfoContext(ctx, "Ignoring command arriving as message edit",
				"user_id", userID, "message_id", msg.MessageID)
			return
		}
		h.handleCommand(ctx, msg)
		return
	}

	h.handleExpense(ctx, msg, isEdit)
}

func (h *Handler) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID

	// Any command may be the user's first contact; without a user row the
	// category link inserts would trip the foreign key.
	if err := h.catalog.EnsureRegistered(ctx, userID); err != nil {
		slog.ErrorContext(ctx, "Failed to register user", "user_id", userID, "error", err)
		h.reply(ctx, chatID, msg.MessageID, genericErrorMessage)
		return
	}

	switch msg.Command() {
	case "start":
		h.reply(ctx, chatID, msg.MessageID, startMessage)

	case "help":
		h.reply(ctx, chatID, msg.MessageID, helpMessage)

	case "report":
		data, filename, err := h.svc.Report(ctx, userID)
		if err != nil {
			slog.ErrorContext(ctx, "Report failed", "user_id", userID, "error", err)
			h.reply(ctx, chatID, msg.MessageID, genericErrorMessage)
			return
		}
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: filename, Bytes: data})
		doc.Caption = reportCaption
		if _, err := h.api.Send(doc); err != nil {
			slog.ErrorContext(ctx, "Failed to send report document", "user_id", userID, "error", err)
		}

	case "delete":
		if msg.ReplyToMessage == nil {
			h.reply(ctx, chatID, msg.MessageID, deleteNeedsReplyMessage)
			return
		}
		existed, err := h.svc.DeleteByMessageID(ctx, userID, int64(msg.ReplyToMessage.MessageID))
		if err != nil {
			slog.ErrorContext(ctx, "Delete failed", "user_id", userID, "error", err)
			h.reply(ctx, chatID, msg.MessageID, genericErrorMessage)
			return
		}
		if !existed {
			h.reply(ctx, chatID, msg.MessageID, nothingToDeleteMessage)
			return
		}
		h.reply(ctx, chatID, msg.MessageID, deletedMessage)

	case "categorias":
		cats, err := h.catalog.Allowed(ctx, userID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to list categories", "user_id", userID, "error", err)
			h.reply(ctx, chatID, msg.MessageID, genericErrorMessage)
			return
		}
		h.reply(ctx, chatID, msg.MessageID,
			"<b>Tus categorías:</b>\n• "+strings.Join(cats, "\n• "))

	case "addcat":
		name := normalizeCategoryArg(msg.CommandArguments())
		if name == "" {
			h.reply(ctx, chatID, msg.MessageID, "Usá: /addcat &lt;nombre&gt;")
			return
		}
		if _, err := h.catalog.AddGlobal(ctx, name); err != nil {
			slog.ErrorContext(ctx, "Failed to add category", "category", name, "error", err)
			h.reply(ctx, chatID, msg.MessageID, genericErrorMessage)
			return
		}
		if _, err := h.catalog.Link(ctx, userID, name); err != nil {
			slog.ErrorContext(ctx, "Failed to link category", "category", name, "error", err)
			h.reply(ctx, chatID, msg.MessageID, genericErrorMessage)
			return
		}
		h.reply(ctx, chatID, msg.MessageID, fmt.Sprintf("✅ Categoría %q vinculada.", name))

	case "delcat":
		name := normalizeCategoryArg(msg.CommandArguments())
		if name == "" {
			h.reply(ctx, chatID, msg.MessageID, "Usá: /delcat &lt;nombre&gt;")
			return
		}
		removed, err := h.catalog.Unlink(ctx, userID, name)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to unlink category", "category", name, "error", err)
			h.reply(ctx, chatID, msg.MessageID, genericErrorMessage)
			return
		}
		if !removed {
			h.reply(ctx, chatID, msg.MessageID, "🤷 Esa categoría no estaba vinculada.")
			return
		}
		h.reply(ctx, chatID, msg.MessageID, fmt.Sprintf("🗑 Categoría %q desvinculada.", name))

	default:
		h.reply(ctx, chatID, msg.MessageID, helpMessage)
	}
}

func (h *Handler) handleExpense(ctx context.Context, msg *tgbotapi.Message, isEdit bool) {
	expense, err := h.svc.RecordMessage(ctx, services.InboundMessage{
		MessageID: int64(msg.MessageID),
		ChatID:    msg.Chat.ID,
		UserID:    msg.From.ID,
		Text:      msg.Text,
		IsEdit:    isEdit,
	})
	if err != nil {
		h.reply(ctx, msg.Chat.ID, msg.MessageID, userFacingError(err))
		if !errors.Is(err, services.ErrParseRejected) {
			slog.ErrorContext(ctx, "Failed to record expense",
				"user_id", msg.From.ID,
				"message_id", msg.MessageID,
				"is_edit", isEdit,
				"error", err)
		}
		return
	}

	verb := "registrado"
	if isEdit {
		verb = "actualizado"
	}
	h.reply(ctx, msg.Chat.ID, msg.MessageID,
		fmt.Sprintf("✅ Gasto de %s %s %s en categoría %q.",
			expense.Value.String(), expense.Currency, verb, expense.Category))
}

// userFacingError maps pipeline errors to chat replies. Parse and
// validation problems are user mistakes; everything else is a fault.
func userFacingError(err error) string {
	switch {
	case errors.Is(err, services.ErrParseRejected):
		return parseRejectedMessage
	case errors.Is(err, extract.ErrExtraction):
		return extractionFailedMessage
	case errors.Is(err, core.ErrUnknownCategory), errors.Is(err, core.ErrCategoryNotLinked):
		return categoryRejectedMessage
	default:
		return genericErrorMessage
	}
}

func (h *Handler) reply(ctx context.Context, chatID int64, replyTo int, text string) {
	reply := tgbotapi.NewMessage(chatID, text)
	reply.ReplyToMessageID = replyTo
	reply.ParseMode = tgbotapi.ModeHTML
	if _, err := h.api.Send(reply); err != nil {
		slog.ErrorContext(ctx, "Failed to send reply", "chat_id", chatID, "error", err)
	}
}

func normalizeCategoryArg(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
