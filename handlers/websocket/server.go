package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"sync"

	"stable-thought/diary"
	"stable-thought/draw"
	"stable-thought/sound"

	"github.com/sirupsen/logrus"
	"github.com/zishang520/engine.io/v2/types"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

type ackInvoker func(err error, payload map[string]any)

type (
	// Store is the domain store as seen by the sketch channel.
	Store interface {
		DiaryStore
		Subscribe(fn func(diary.Event)) (cancel func())
	}

	// Sounds plays effects and hands the resulting cues to a sink.
	Sounds interface {
		Player
		SetSink(sink func(sound.Cue))
	}

	Deps struct {
		Store    Store
		Stickers draw.StickerSource
		Sounds   Sounds
	}
)

var (
	sessions   = make(map[socketio.SocketId]*Session)
	sessionsMu sync.RWMutex
)

// ActiveSessions returns the number of connected sockets.
func ActiveSessions() int {
	sessionsMu.RLock()
	defer sessionsMu.RUnlock()
	return len(sessions)
}

// SetupSocketIO returns the sketch server and a func that detaches it from
// the store.
func SetupSocketIO(deps Deps) (*socketio.Server, func()) {
	opts := socketio.DefaultServerOptions()
	opts.SetMaxHttpBufferSize(5000000)
	opts.SetPath("/socket.io")
	opts.SetAllowEIO3(true)
	localhostOrigin := regexp.MustCompile(`^https?://(localhost|127\.0\.0\.1|\[::1\])(:\d+)?$`)
	opts.SetCors(&types.Cors{
		Origin: []any{
			"tauri://localhost",
			localhostOrigin,
		},
		Credentials: true,
	})
	srv := socketio.NewServer(nil, opts)

	cancel := deps.Store.Subscribe(func(ev diary.Event) {
		srv.Emit("store-changed", map[string]any{
			"kind": string(ev.Kind),
			"id":   ev.ID,
		})
	})

	var player Player
	if deps.Sounds != nil {
		player = deps.Sounds
		deps.Sounds.SetSink(func(c sound.Cue) {
			srv.Emit("play-sound", map[string]any{
				"type":   string(c.Type),
				"volume": c.Volume,
			})
		})
	}

	//nolint:errcheck // Socket.IO event handlers do not return useful errors
	srv.On("connection", func(clients ...any) {
		socket, ok := clients[0].(*socketio.Socket)
		if !ok {
			return
		}

		me := socket.Id()
		session := NewSession(deps.Store, deps.Stickers, player)
		sessionsMu.Lock()
		sessions[me] = session
		sessionsMu.Unlock()
		logrus.WithField("socket", me).Debug("Sketch client connected")

		on(socket, "sketch-open", "sketch-opened", func(args []any) (map[string]any, error) {
			var req OpenRequest
			if err := decodeArg(args, &req); err != nil {
				return nil, err
			}
			if err := session.Open(req); err != nil {
				logrus.WithFields(logrus.Fields{
					"error":  err,
					"socket": me,
				}).Warn("Sketch could not be opened")
				return nil, err
			}
			return map[string]any{"date": session.Date()}, nil
		})

		on(socket, "stroke-start", "", func(args []any) (map[string]any, error) {
			var req StrokeRequest
			if err := decodeArg(args, &req); err != nil {
				return nil, err
			}
			return nil, session.StrokeStart(req)
		})

		on(socket, "stroke-point", "", func(args []any) (map[string]any, error) {
			var req PointRequest
			if err := decodeArg(args, &req); err != nil {
				return nil, err
			}
			return nil, session.StrokePoint(req)
		})

		on(socket, "stroke-end", "", func(args []any) (map[string]any, error) {
			n, err := session.StrokeEnd()
			if err != nil {
				return nil, err
			}
			return map[string]any{"points": n}, nil
		})

		on(socket, "sketch-clear", "", func(args []any) (map[string]any, error) {
			return nil, session.Clear()
		})

		on(socket, "sketch-save", "sketch-saved", func(args []any) (map[string]any, error) {
			entry, err := session.Save(context.Background())
			if err != nil {
				logrus.WithFields(logrus.Fields{
					"error":  err,
					"socket": me,
				}).Error("Failed to save sketch")
				return nil, err
			}
			return map[string]any{"id": entry.ID, "date": entry.Date}, nil
		})

		on(socket, "sticker-add", "", func(args []any) (map[string]any, error) {
			var req StickerRequest
			if err := decodeArg(args, &req); err != nil {
				return nil, err
			}
			sticker, err := session.AddSticker(context.Background(), req)
			if err != nil {
				return nil, err
			}
			return map[string]any{"id": sticker.ID}, nil
		})

		socket.On("disconnect", func(datas ...any) {
			sessionsMu.Lock()
			delete(sessions, me)
			sessionsMu.Unlock()
			session.Close()
			logrus.WithField("socket", me).Debug("Sketch client disconnected")

			socket.RemoveAllListeners("")
			socket.Disconnect(true)
		})
	})

	return srv, cancel
}

// on registers fn for event and acknowledges every call with its outcome.
// A non-empty reply event also echoes the ack payload to the socket.
func on(socket *socketio.Socket, event, reply string, fn func(args []any) (map[string]any, error)) {
	//nolint:errcheck // Socket.IO event handlers do not return useful errors
	socket.On(event, func(datas ...any) {
		ack, args := extractAck(datas)
		payload, err := fn(args)
		respondWithAck(socket, ack, reply, makeAckPayload(payload, err), err)
	})
}

func makeAckPayload(payload map[string]any, ackErr error) map[string]any {
	response := map[string]any{
		"status": "ok",
	}
	for k, v := range payload {
		response[k] = v
	}

	if ackErr != nil {
		response["status"] = "error"
		response["error"] = ackErr.Error()
	}
	return response
}

// decodeArg decodes the first event argument into dst.
func decodeArg(args []any, dst any) error {
	if len(args) == 0 {
		return fmt.Errorf("payload is required")
	}
	data, err := json.Marshal(args[0])
	if err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}

func extractAck(datas []any) (ack ackInvoker, args []any) {
	if len(datas) == 0 {
		return nil, datas
	}

	candidate := datas[len(datas)-1]
	ack = wrapAck(candidate)
	if ack == nil {
		return nil, datas
	}

	return ack, datas[:len(datas)-1]
}

func wrapAck(candidate any) ackInvoker {
	if candidate == nil {
		return nil
	}

	value := reflect.ValueOf(candidate)
	if !value.IsValid() || value.Kind() != reflect.Func {
		return nil
	}

	typ := value.Type()
	if typ.IsVariadic() && typ.NumIn() == 1 {
		// func(...any): the payload carries the error.
		return func(err error, payload map[string]any) {
			value.Call([]reflect.Value{coerceValue(payload, typ.In(0).Elem())})
		}
	}
	return func(err error, payload map[string]any) {
		value.Call(buildAckArgs(typ, err, payload))
	}
}

func buildAckArgs(typ reflect.Type, err error, payload map[string]any) []reflect.Value {
	numIn := typ.NumIn()
	args := make([]reflect.Value, numIn)

	for i := 0; i < numIn; i++ {
		var argValue any
		switch {
		case numIn == 1:
			// Single-argument acks get the payload, which carries the error.
			argValue = payload
		case i == 0:
			argValue = err
		case i == 1:
			argValue = payload
		}
		args[i] = coerceValue(argValue, typ.In(i))
	}

	return args
}

// coerceValue passes an ack argument through when the callback accepts it,
// and the zero value otherwise. Ack arguments are only an error or a payload.
func coerceValue(value any, targetType reflect.Type) reflect.Value {
	if value == nil {
		return reflect.Zero(targetType)
	}
	if rv := reflect.ValueOf(value); rv.Type().AssignableTo(targetType) {
		return rv
	}
	return reflect.Zero(targetType)
}

func respondWithAck(socket *socketio.Socket, ack ackInvoker, event string, payload map[string]any, ackErr error) {
	if ack != nil {
		ack(ackErr, payload)
	}

	if event != "" && payload != nil {
		_ = socket.Emit(event, payload)
	}
}
