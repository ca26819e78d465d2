package departure

import (
	"encoding/json"

	"dispatch-board/logger"
	"dispatch-board/services/live"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// boardMessage is one websocket frame: either a full snapshot of the board or
// a single notice, never both.
type boardMessage struct {
	Type     string        `json:"type"`
	Snapshot *boardPayload `json:"snapshot,omitempty"`
	Notice   *live.Notice  `json:"notice,omitempty"`
}

type boardPayload struct {
	Departures []boardRow `json:"departures"`
	Error      string     `json:"error,omitempty"`
}

// UpgradeBoardStream rejects plain HTTP requests on the websocket route.
func UpgradeBoardStream(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// BoardStream streams the live board over a websocket: the current snapshot on
// connect, then a full replacement snapshot after every change, interleaved
// with notices. Each snapshot frame carries the whole board; clients replace,
// not merge.
func (dc *DepartureController) BoardStream() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		// Hub callbacks run under the hub lock, so they only enqueue here.
		// The channels are buffered and drop-oldest under a slow reader;
		// for snapshots the newest one is the only one that matters.
		snaps := make(chan live.Snapshot, 8)
		notices := make(chan live.Notice, 32)

		unsubSnaps := dc.Hub.Subscribe(func(s live.Snapshot) {
			for {
				select {
				case snaps <- s:
					return
				default:
					select {
					case <-snaps:
					default:
					}
				}
			}
		})
		defer unsubSnaps()

		unsubNotices := dc.Hub.SubscribeNotices(func(n live.Notice) {
			select {
			case notices <- n:
			default:
			}
		})
		defer unsubNotices()

		// Drain the client side so we notice the close.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		logger.Info("Board stream connected")
		defer logger.Info("Board stream disconnected")

		for {
			select {
			case <-done:
				return
			case s := <-snaps:
				if err := writeBoardFrame(conn, snapshotFrame(s)); err != nil {
					return
				}
			case n := <-notices:
				if err := writeBoardFrame(conn, boardMessage{Type: "notice", Notice: &n}); err != nil {
					return
				}
			}
		}
	})
}

func snapshotFrame(s live.Snapshot) boardMessage {
	payload := &boardPayload{Departures: []boardRow{}}
	if s.Err != nil {
		payload.Error = "Failed to load departures"
	} else {
		for _, d := range s.Departures {
			payload.Departures = append(payload.Departures, toBoardRow(d))
		}
	}
	return boardMessage{Type: "snapshot", Snapshot: payload}
}

func writeBoardFrame(conn *websocket.Conn, msg boardMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Error("Failed to encode board frame", err)
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}
