package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubBroadcastDisponibilidad(t *testing.T) {
	t.Run("delivers the frame to every registered client", func(t *testing.T) {
		hub := NewHub()
		a := &Client{Send: make(chan []byte, 1)}
		b := &Client{Send: make(chan []byte, 1)}
		hub.Register(a)
		hub.Register(b)

		hub.BroadcastDisponibilidad(7, []int{1, 3}, true)

		for _, c := range []*Client{a, b} {
			var frame struct {
				Type        string `json:"type"`
				TandaID     uint   `json:"tanda_id"`
				Disponibles []int  `json:"disponibles"`
				Disponible  bool   `json:"disponible"`
			}
			require.NoError(t, json.Unmarshal(<-c.Send, &frame))
			assert.Equal(t, "disponibilidad", frame.Type)
			assert.Equal(t, uint(7), frame.TandaID)
			assert.Equal(t, []int{1, 3}, frame.Disponibles)
			assert.True(t, frame.Disponible)
		}
	})

	t.Run("closed client is skipped without panicking", func(t *testing.T) {
		hub := NewHub()
		vivo := &Client{Send: make(chan []byte, 1)}
		cerrado := &Client{Send: make(chan []byte, 1)}
		hub.Register(vivo)
		hub.Register(cerrado)
		cerrado.Close()

		assert.NotPanics(t, func() {
			hub.BroadcastDisponibilidad(1, []int{2}, true)
		})
		assert.Len(t, vivo.Send, 1)
		assert.Equal(t, 1, hub.ClientCount())

		// a send racing Close must hit the closed guard, not the channel
		assert.NotPanics(t, func() {
			cerrado.trySend([]byte("tarde"))
		})
	})

	t.Run("slow client drops the frame instead of blocking", func(t *testing.T) {
		hub := NewHub()
		lento := &Client{Send: make(chan []byte, 1)}
		hub.Register(lento)
		lento.Send <- []byte("pendiente")

		hub.BroadcastDisponibilidad(1, nil, false)
		assert.Len(t, lento.Send, 1)
		assert.Equal(t, []byte("pendiente"), <-lento.Send)
	})

	t.Run("empty availability marshals as an empty list", func(t *testing.T) {
		hub := NewHub()
		c := &Client{Send: make(chan []byte, 1)}
		hub.Register(c)

		hub.BroadcastDisponibilidad(2, nil, false)
		frame := <-c.Send
		assert.Contains(t, string(frame), `"disponibles":[]`)
	})
}
