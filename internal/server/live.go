package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/xming13/GoGovSG/internal/errors"
	"github.com/xming13/GoGovSG/pkg/links"
	"github.com/xming13/GoGovSG/pkg/navigator"
	"github.com/xming13/GoGovSG/pkg/resultstore"
	"github.com/xming13/GoGovSG/pkg/searchparam"
	"github.com/xming13/GoGovSG/pkg/searchstate"
	"github.com/xming13/GoGovSG/pkg/selection"
)

const (
	writeWait     = 10 * time.Second
	maxMessage    = 4096
	eventQueue    = 64
	dispatchQueue = 64
)

// Client message types.
const (
	msgQuery    = "query"
	msgSort     = "sort"
	msgPage     = "page"
	msgRows     = "rows"
	msgClear    = "clear"
	msgSubmit   = "submit"
	msgSelect   = "select"
	msgPopState = "popstate"
)

// Server message types.
const (
	msgURL      = "url"
	msgState    = "state"
	msgRedirect = "redirect"
	msgError    = "error"
)

// clientMessage is a UI event sent by the browser.
type clientMessage struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Sort     string `json:"sort,omitempty"`
	N        int    `json:"n,omitempty"`
	ShortURL string `json:"shortUrl,omitempty"`
	Narrow   bool   `json:"narrow,omitempty"`

	// Query is the location's query string after a back/forward traversal,
	// with or without the leading '?'.
	Query string `json:"query,omitempty"`
}

// liveState is the structured part of a state message.
type liveState struct {
	PendingQuery string                `json:"pendingQuery"`
	Query        string                `json:"query"`
	SortOrder    searchparam.SortOrder `json:"sortOrder"`
	RowsPerPage  int                   `json:"rowsPerPage"`
	CurrentPage  int                   `json:"currentPage"`
	Status       string                `json:"status"`
	Header       string                `json:"header,omitempty"`
	TotalCount   int                   `json:"totalCount"`
	PageCount    int                   `json:"pageCount"`
	Stale        bool                  `json:"stale,omitempty"`
	Selected     string                `json:"selected,omitempty"`
}

type serverMessage struct {
	Type    string     `json:"type"`
	Mode    string     `json:"mode,omitempty"`
	URL     string     `json:"url,omitempty"`
	State   *liveState `json:"state,omitempty"`
	HTML    string     `json:"html,omitempty"`
	Code    string     `json:"code,omitempty"`
	Message string     `json:"message,omitempty"`
}

// liveSession drives one search controller for one browser tab. Client
// events and async completions run on the event loop goroutine only.
type liveSession struct {
	id        string
	conn      *websocket.Conn
	logger    *slog.Logger
	heartbeat time.Duration

	events     chan clientMessage
	dispatchCh chan func()
	done       chan struct{}
	closed     atomic.Bool
	writeMu    sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc

	history   *sessionHistory
	ctrl      *searchstate.Controller
	selection selection.State
	lastState []byte

	eventCount atomic.Int64
}

// sessionHistory is the browser's history as seen from the server. Every
// navigation is sent to the client and fed back into the controller.
type sessionHistory struct {
	session *liveSession
	loc     navigator.Location
}

func (h *sessionHistory) Push(path, rawQuery string) {
	h.navigate(navigator.ModePush, path, rawQuery)
}

func (h *sessionHistory) Replace(path, rawQuery string) {
	h.navigate(navigator.ModeReplace, path, rawQuery)
}

func (h *sessionHistory) Location() navigator.Location { return h.loc }

func (h *sessionHistory) navigate(mode navigator.Mode, path, rawQuery string) {
	h.loc = navigator.Location{Path: path, RawQuery: rawQuery}
	h.session.send(serverMessage{Type: msgURL, Mode: mode.String(), URL: h.loc.String()})
	h.session.ctrl.Sync(rawQuery)
}

// pop records a back/forward traversal made by the browser.
func (h *sessionHistory) pop(rawQuery string) {
	h.loc = navigator.Location{Path: navigator.DefaultPath, RawQuery: rawQuery}
	h.session.ctrl.Sync(rawQuery)
}

func (s *Server) newLiveSession(conn *websocket.Conn, rawQuery string) *liveSession {
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	ls := &liveSession{
		id:         id,
		conn:       conn,
		logger:     s.logger.With("session_id", id),
		heartbeat:  s.heartbeat,
		events:     make(chan clientMessage, eventQueue),
		dispatchCh: make(chan func(), dispatchQueue),
		done:       make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}
	ls.history = &sessionHistory{
		session: ls,
		loc:     navigator.Location{Path: navigator.DefaultPath, RawQuery: rawQuery},
	}
	ls.selection.Redirect = func(path string) {
		ls.send(serverMessage{Type: msgRedirect, URL: path})
	}

	mode := navigator.ModePush
	if s.cfg.Search.DebounceMode == navigator.ModeReplace.String() {
		mode = navigator.ModeReplace
	}
	nav := navigator.New(ls.history,
		navigator.WithClock(navigator.DispatchClock(navigator.SystemClock{}, ls.Dispatch)),
		navigator.WithWindow(s.cfg.Search.Debounce.Std()),
		navigator.WithDebouncedMode(mode),
		navigator.WithLogger(ls.logger),
	)

	store, writer := resultstore.New()
	ls.ctrl = searchstate.New(searchstate.Config{
		Service:      s.service,
		Navigator:    nav,
		Store:        store,
		Writer:       writer,
		Dispatch:     ls.Dispatch,
		Context:      ctx,
		FetchTimeout: s.cfg.Search.FetchTimeout.Std(),
		Logger:       ls.logger,
		Hooks:        s.hooks(),
	})
	return ls
}

// handleLive upgrades to a WebSocket and runs a live session until the
// client goes away.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed",
			"code", errors.CodeProtocolUpgrade,
			"error", err)
		return
	}

	ls := s.newLiveSession(conn, r.URL.RawQuery)
	s.addSession(ls)
	defer s.removeSession(ls)
	ls.logger.Info("session started", "remote_addr", r.RemoteAddr)

	raw := r.URL.RawQuery
	ls.Dispatch(func() { ls.ctrl.Sync(raw) })

	go ls.WriteLoop()
	go ls.EventLoop()
	ls.ReadLoop()
}

// ReadLoop reads client messages until the connection fails.
func (ls *liveSession) ReadLoop() {
	defer ls.Close()

	ls.conn.SetReadLimit(maxMessage)
	ls.conn.SetReadDeadline(time.Now().Add(2 * ls.heartbeat))
	ls.conn.SetPongHandler(func(string) error {
		return ls.conn.SetReadDeadline(time.Now().Add(2 * ls.heartbeat))
	})

	for {
		_, data, err := ls.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				ls.logger.Error("read error", "error", err)
			}
			return
		}
		ls.conn.SetReadDeadline(time.Now().Add(2 * ls.heartbeat))

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			ls.protocolError("malformed message")
			continue
		}
		select {
		case ls.events <- msg:
		case <-ls.done:
			return
		default:
			ls.logger.Warn("event queue full, dropping event", "type", msg.Type)
		}
	}
}

// WriteLoop pings the client every heartbeat.
func (ls *liveSession) WriteLoop() {
	ticker := time.NewTicker(ls.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ls.writeMu.Lock()
			err := ls.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			ls.writeMu.Unlock()
			if err != nil {
				ls.Close()
				return
			}
		case <-ls.done:
			return
		}
	}
}

// EventLoop is the session's single logical thread.
func (ls *liveSession) EventLoop() {
	for {
		select {
		case msg := <-ls.events:
			ls.eventCount.Add(1)
			ls.execute(func() { ls.handle(msg) })
		case fn := <-ls.dispatchCh:
			ls.execute(fn)
		case <-ls.done:
			ls.ctrl.Close()
			return
		}
	}
}

// Dispatch queues fn to run on the event loop. It is safe to call from any
// goroutine except the event loop itself.
func (ls *liveSession) Dispatch(fn func()) {
	if ls.closed.Load() {
		return
	}
	select {
	case ls.dispatchCh <- fn:
	case <-ls.done:
	}
}

func (ls *liveSession) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			ls.logger.Error("handler panic",
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	fn()
	ls.sendState()
}

func (ls *liveSession) handle(msg clientMessage) {
	switch msg.Type {
	case msgQuery:
		ls.ctrl.OnQueryChange(msg.Text)
	case msgSort:
		ls.ctrl.OnSortOrderChange(searchparam.SortOrder(msg.Sort))
	case msgPage:
		ls.ctrl.OnPageChange(msg.N)
	case msgRows:
		ls.ctrl.OnRowsPerPageChange(msg.N)
	case msgClear:
		ls.ctrl.OnClearQuery()
	case msgSubmit:
		ls.ctrl.OnSubmit()
	case msgSelect:
		ls.selection.Click(msg.ShortURL, msg.Narrow)
	case msgPopState:
		ls.history.pop(strings.TrimPrefix(msg.Query, "?"))
	default:
		ls.protocolError("unknown message type " + msg.Type)
	}
}

// sendState sends the current view unless the client already has it.
func (ls *liveSession) sendState() {
	v := ls.ctrl.View()
	var selected *links.Summary
	if item, ok := ls.selection.Resolve(v.Results.Items); ok {
		selected = &item
	}
	html, err := renderResults(buildResults(v, selected))
	if err != nil {
		ls.logger.Error("render results", "error", err)
		return
	}

	st := &liveState{
		PendingQuery: v.PendingQuery,
		Query:        v.Params.Query,
		SortOrder:    v.Params.SortOrder,
		RowsPerPage:  v.Params.RowsPerPage,
		CurrentPage:  v.Params.CurrentPage,
		Status:       v.State.String(),
		Header:       v.Header,
		TotalCount:   v.Results.TotalCount,
		PageCount:    v.PageCount,
		Stale:        v.Stale,
	}
	if selected != nil {
		st.Selected = selected.ShortURL
	}
	msg := serverMessage{Type: msgState, State: st, HTML: html}
	data, err := json.Marshal(msg)
	if err != nil {
		ls.logger.Error("encode state", "error", err)
		return
	}
	if bytes.Equal(data, ls.lastState) {
		return
	}
	ls.lastState = data
	ls.write(data)
}

func (ls *liveSession) protocolError(message string) {
	ls.logger.Warn("protocol error", "code", errors.CodeProtocolMessage, "message", message)
	ls.send(serverMessage{Type: msgError, Code: errors.CodeProtocolMessage, Message: message})
}

func (ls *liveSession) send(msg serverMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		ls.logger.Error("encode message", "type", msg.Type, "error", err)
		return
	}
	ls.write(data)
}

func (ls *liveSession) write(data []byte) {
	if ls.closed.Load() {
		return
	}
	ls.writeMu.Lock()
	defer ls.writeMu.Unlock()
	ls.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := ls.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		ls.logger.Debug("write failed", "error", err)
	}
}

// Close ends the session. It is safe to call more than once.
func (ls *liveSession) Close() {
	if ls.closed.Swap(true) {
		return
	}
	close(ls.done)
	ls.cancel()

	ls.writeMu.Lock()
	ls.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	ls.writeMu.Unlock()
	ls.conn.Close()

	ls.logger.Info("session closed", "events", ls.eventCount.Load())
}
