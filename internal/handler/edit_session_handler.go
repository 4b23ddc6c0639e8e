package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/paperforge/paperforge-backend/internal/block"
	"github.com/paperforge/paperforge-backend/internal/config"
	"github.com/paperforge/paperforge-backend/internal/document"
	"github.com/paperforge/paperforge-backend/internal/editor"
	"github.com/paperforge/paperforge-backend/internal/middleware"
	"github.com/paperforge/paperforge-backend/internal/service"
	ws "github.com/paperforge/paperforge-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// EditSessionHandler runs live paper editing sessions over WebSocket. Each
// connection owns one editing session: commands stream in, save and upload
// outcomes stream back as events.
type EditSessionHandler struct {
	cfg          *config.Config
	paperService *service.PaperService
	blockService *service.PaperBlockService
	mediaService *service.MediaService
	log          zerolog.Logger
	upgrader     websocket.Upgrader
}

// NewEditSessionHandler creates a new EditSessionHandler.
func NewEditSessionHandler(cfg *config.Config, paperService *service.PaperService, blockService *service.PaperBlockService, mediaService *service.MediaService, log zerolog.Logger) *EditSessionHandler {
	return &EditSessionHandler{
		cfg:          cfg,
		paperService: paperService,
		blockService: blockService,
		mediaService: mediaService,
		log:          log.With().Str("component", "edit_session_handler").Logger(),
		upgrader:     buildUpgrader(cfg.AllowedOrigins),
	}
}

// connNotifier forwards session events to the WebSocket client.
type connNotifier struct {
	conn *ws.Conn
}

func (n *connNotifier) Notify(event editor.Event) {
	n.conn.WriteTyped(ws.EventPayload{
		Event:     ws.Event(event.Kind),
		Message:   event.Message,
		BlockID:   event.BlockID,
		UploadKey: event.UploadKey,
	})
}

// Stream godoc
// WS /ws/v1/papers/:paper_id/edit
// Upgrades to WebSocket and runs the paper's live editing session.
func (h *EditSessionHandler) Stream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	paperID, ok := parseID(c, "paper_id")
	if !ok {
		return
	}

	paper, err := h.paperService.Get(c.Request.Context(), claims.AuthorID, paperID)
	if err != nil {
		failResource(c, err)
		return
	}

	rawConn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.NewConn(rawConn)
	defer conn.Close()

	doc, err := document.Parse(paper.ContentDoc)
	if err != nil {
		h.log.Error().Err(err).Int64("paper_id", paperID).Msg("Stored document failed to parse")
		conn.WriteError("paper content is corrupted")
		return
	}

	session, err := editor.NewSession(editor.Config{
		PaperID:   paperID,
		Title:     paper.Title,
		Doc:       doc,
		Papers:    h.paperService,
		Blocks:    h.blockService,
		Uploader:  h.mediaService,
		Notifier:  &connNotifier{conn: conn},
		Logger:    h.log,
		SaveDelay: h.cfg.SaveDebounce,
	})
	if err != nil {
		h.log.Error().Err(err).Int64("paper_id", paperID).Msg("Session setup failed")
		conn.WriteError("failed to start editing session")
		return
	}
	defer func() {
		// Flush outstanding edits before tearing the session down.
		session.SaveNow(context.Background())
		session.Close()
	}()

	sessionLog := h.log.With().
		Int64("author_id", claims.AuthorID).
		Int64("paper_id", paperID).
		Logger()

	if err := session.RefreshRegistry(c.Request.Context()); err != nil {
		sessionLog.Error().Err(err).Msg("Initial registry load failed")
		conn.WriteError("failed to load question blocks")
		return
	}

	sessionLog.Info().Msg("Author connected")

	for {
		var msg ws.RequestPayload
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				sessionLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				sessionLog.Debug().Msg("Connection closed")
			}
			break
		}

		h.dispatch(conn, session, sessionLog, &msg)
	}
}

func (h *EditSessionHandler) dispatch(conn *ws.Conn, session *editor.Session, log zerolog.Logger, msg *ws.RequestPayload) {
	switch msg.Action {
	case ws.ActionPing:
		conn.WriteTyped(ws.PongResponse{Event: ws.EventPong})

	case ws.ActionSetTitle:
		h.reply(conn, msg, session.SetTitle(msg.Title))

	case ws.ActionReplaceDoc:
		doc, err := document.Parse(msg.Doc)
		if err != nil {
			conn.WriteError("invalid document payload")
			return
		}
		h.reply(conn, msg, session.ReplaceDoc(doc))

	case ws.ActionAddBlock:
		h.handleAddBlock(conn, session, msg)

	case ws.ActionDeleteBlock:
		h.reply(conn, msg, session.DeleteQuestionBlock(msg.BlockID))

	case ws.ActionSetStem:
		stem, err := document.Parse(msg.Content)
		if err != nil {
			conn.WriteError("invalid stem payload")
			return
		}
		h.reply(conn, msg, session.EditStem(msg.BlockID, stem))

	case ws.ActionAddOption:
		h.replyBlock(conn, session, msg, session.AddOption(msg.BlockID))

	case ws.ActionRemoveOption:
		if msg.Index == nil {
			conn.WriteError("index is required")
			return
		}
		h.replyBlock(conn, session, msg, session.RemoveOption(msg.BlockID, *msg.Index))

	case ws.ActionSetOptionContent:
		h.handleSetContent(conn, session, msg, session.SetOptionContent)

	case ws.ActionAddPart:
		h.replyBlock(conn, session, msg, session.AddPart(msg.BlockID))

	case ws.ActionRemovePart:
		if msg.Index == nil {
			conn.WriteError("index is required")
			return
		}
		h.replyBlock(conn, session, msg, session.RemovePart(msg.BlockID, *msg.Index))

	case ws.ActionSetPartContent:
		h.handleSetContent(conn, session, msg, session.SetPartContent)

	case ws.ActionSetOverrides:
		var patch block.Overrides
		if err := json.Unmarshal(msg.Overrides, &patch); err != nil {
			conn.WriteError("invalid overrides payload")
			return
		}
		h.replyBlock(conn, session, msg, session.SetOverrides(msg.BlockID, patch))

	case ws.ActionSetDisplayNumber:
		h.replyBlock(conn, session, msg, session.CommitDisplayNumber(msg.BlockID, msg.Value))

	case ws.ActionPaste:
		h.handlePaste(conn, session, msg)

	case ws.ActionRefreshBlocks:
		h.reply(conn, msg, session.RefreshRegistry(context.Background()))

	case ws.ActionSaveNow:
		if err := session.SaveNow(context.Background()); err != nil {
			conn.WriteTyped(ws.EventPayload{Event: ws.EventSaveFailed, Message: "save failed"})
			return
		}
		conn.WriteTyped(ws.EventPayload{Event: ws.EventSaved})

	case ws.ActionUndo:
		session.Undo()
		h.sendDoc(conn, session)

	case ws.ActionRedo:
		session.Redo()
		h.sendDoc(conn, session)

	default:
		log.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
		conn.WriteError("unknown action: " + string(msg.Action))
	}
}

func (h *EditSessionHandler) handleAddBlock(conn *ws.Conn, session *editor.Session, msg *ws.RequestPayload) {
	position := -1
	if msg.Position != nil {
		position = *msg.Position
	}
	row, err := session.InsertQuestionBlock(context.Background(), block.QuestionType(msg.QuestionType), msg.QuestionItemID, position)
	if err != nil {
		conn.WriteError("failed to add question block")
		return
	}
	conn.WriteTyped(ws.EventPayload{
		Event:   ws.EventBlock,
		BlockID: row.ID,
		Data: gin.H{
			"block":          row,
			"display_number": session.DisplayNumber(row.ID),
		},
	})
}

func (h *EditSessionHandler) handleSetContent(conn *ws.Conn, session *editor.Session, msg *ws.RequestPayload, set func(int64, int, *document.Node) error) {
	if msg.Index == nil {
		conn.WriteError("index is required")
		return
	}
	content, err := document.Parse(msg.Content)
	if err != nil {
		conn.WriteError("invalid content payload")
		return
	}
	h.replyBlock(conn, session, msg, set(msg.BlockID, *msg.Index, content))
}

func (h *EditSessionHandler) handlePaste(conn *ws.Conn, session *editor.Session, msg *ws.RequestPayload) {
	items := make([]editor.ClipboardItem, 0, len(msg.Images))
	for _, img := range msg.Images {
		items = append(items, editor.ClipboardItem{
			MimeType: img.MimeType,
			Filename: img.Filename,
			Data:     img.Data,
		})
	}
	position := -1
	if msg.Position != nil {
		position = *msg.Position
	}

	keys, err := session.HandlePaste(items, position)
	if err != nil {
		conn.WriteError(err.Error())
		return
	}
	conn.WriteTyped(ws.EventPayload{
		Event: ws.EventAck,
		Data:  gin.H{"upload_keys": keys},
	})
}

// reply acknowledges a command or reports its failure.
func (h *EditSessionHandler) reply(conn *ws.Conn, msg *ws.RequestPayload, err error) {
	if err != nil {
		conn.WriteError("command failed: " + string(msg.Action))
		return
	}
	conn.WriteTyped(ws.EventPayload{Event: ws.EventAck})
}

// replyBlock acknowledges a block command with the block's updated view.
func (h *EditSessionHandler) replyBlock(conn *ws.Conn, session *editor.Session, msg *ws.RequestPayload, err error) {
	if err != nil {
		conn.WriteError("command failed: " + string(msg.Action))
		return
	}
	row, ok := session.Registry().Get(msg.BlockID)
	if !ok {
		// Block not cached yet; the edit was a loading-state no-op.
		conn.WriteTyped(ws.EventPayload{Event: ws.EventAck, BlockID: msg.BlockID})
		return
	}
	conn.WriteTyped(ws.EventPayload{
		Event:   ws.EventBlock,
		BlockID: row.ID,
		Data: gin.H{
			"block":          row,
			"display_number": session.DisplayNumber(row.ID),
		},
	})
}

// sendDoc pushes the full current document, used after undo and redo.
func (h *EditSessionHandler) sendDoc(conn *ws.Conn, session *editor.Session) {
	doc, err := session.Doc()
	if err != nil {
		conn.WriteError("failed to snapshot document")
		return
	}
	conn.WriteTyped(ws.EventPayload{
		Event: ws.EventDoc,
		Data:  gin.H{"doc": doc, "title": session.Title()},
	})
}
