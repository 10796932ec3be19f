package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/playmatatu/poolsim/internal/game"
	"github.com/playmatatu/poolsim/internal/observability"
	"github.com/playmatatu/poolsim/internal/shots"
)

// Outbound message types.
const (
	TypeShot  = "shot"
	TypeFrame = "frame"
	TypeDone  = "done"
	TypeError = "error"
)

// Playback control messages accepted from the client.
const (
	ControlPause   = "pause"
	ControlResume  = "resume"
	ControlRestart = "restart"
	ControlSpeed   = "speed"
)

type envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

type shotHeader struct {
	ID      string             `json:"id"`
	Summary shots.Summary      `json:"summary"`
	BallIDs []string           `json:"ball_ids"`
	Events  []game.EventRecord `json:"events"`
	Speed   float64            `json:"speed"`
}

// HandlePlayback streams a stored shot frame by frame, pacing frames by their
// simulated timestamps divided by the playback speed.
func HandlePlayback(hub *Hub, m *shots.Manager, defaultSpeed float64, metrics *observability.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, err := m.Get(c.Request.Context(), c.Param("id"))
		if errors.Is(err, shots.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "shot not found"})
			return
		}
		if err != nil {
			log.WithError(err).Error("[WS] shot lookup failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		speed := defaultSpeed
		if q := c.Query("speed"); q != "" {
			speed, err = strconv.ParseFloat(q, 64)
			if err != nil || !(speed > 0) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "speed must be a positive number"})
				return
			}
		}
		if !(speed > 0) {
			speed = 1
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warnf("[WS] upgrade error: %v", err)
			return
		}

		client := newClient(conn, "playback:"+uuid.NewString())
		p := &playback{
			client:   client,
			result:   r,
			replay:   game.TrajectoryFromData(r.Trajectory).Replay(),
			speed:    speed,
			controls: make(chan Message, 8),
			metrics:  metrics,
		}
		client.onMessage = p.control
		if !hub.join(client) {
			conn.Close()
			return
		}
		log.WithFields(log.Fields{"shot_id": r.ID, "speed": speed}).Info("[WS] playback started")

		go client.writePump()
		go p.run()
		client.readPump(hub)
	}
}

type playback struct {
	client   *Client
	result   *shots.Result
	replay   *game.Replay
	speed    float64
	controls chan Message
	metrics  *observability.Collector
}

func (p *playback) control(msg Message) {
	select {
	case p.controls <- msg:
	default:
	}
}

// wallTime converts a simulated interval into real time at the current speed.
func (p *playback) wallTime(simulated float64) time.Duration {
	return time.Duration(simulated / p.speed * float64(time.Second))
}

func (p *playback) run() {
	defer p.metrics.PlaybackStarted()()

	header := shotHeader{
		ID:      p.result.ID,
		Summary: p.result.Summary,
		BallIDs: p.result.Trajectory.BallIDs,
		Events:  p.result.Trajectory.Events,
		Speed:   p.speed,
	}
	if !p.client.sendWait(envelope{Type: TypeShot, Data: header}) {
		return
	}

	next, ok := p.replay.Next()
	paused := false
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		var tick <-chan time.Time
		if ok && !paused {
			tick = timer.C
		}

		select {
		case <-p.client.done:
			return

		case msg := <-p.controls:
			switch msg.Type {
			case ControlPause:
				paused = true
			case ControlResume:
				if paused {
					paused = false
					timer.Reset(0)
				}
			case ControlRestart:
				p.replay.Reset()
				next, ok = p.replay.Next()
				paused = false
				timer.Reset(0)
			case ControlSpeed:
				var v float64
				if err := json.Unmarshal(msg.Data, &v); err != nil || !(v > 0) {
					p.client.trySend(envelope{Type: TypeError, Data: "speed must be a positive number"})
					continue
				}
				p.speed = v
			default:
				p.client.trySend(envelope{Type: TypeError, Data: "unknown control " + strconv.Quote(msg.Type)})
			}

		case <-tick:
			if !p.client.sendWait(envelope{Type: TypeFrame, Data: next}) {
				return
			}
			prev := next.Time
			next, ok = p.replay.Next()
			if !ok {
				p.client.sendWait(envelope{Type: TypeDone, Data: gin.H{"duration": p.result.Summary.Duration}})
				continue
			}
			timer.Reset(p.wallTime(next.Time - prev))
		}
	}
}
