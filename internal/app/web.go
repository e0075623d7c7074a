// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/imu_logger/internal/config"
	"github.com/relabs-tech/imu_logger/internal/imu"
)

const (
	clientBuffer = 16
	writeWait    = 2 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// Hub keeps the latest sample and fans new ones out to websocket clients.
// Slow clients miss samples rather than stall the publisher.
type Hub struct {
	mu      sync.RWMutex
	last    imu.Sample
	have    bool
	clients map[chan imu.Sample]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[chan imu.Sample]struct{})}
}

// Write stores s and offers it to every connected client.
func (h *Hub) Write(s imu.Sample) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.last = s
	h.have = true
	for ch := range h.clients {
		select {
		case ch <- s:
		default:
		}
	}
	return nil
}

func (h *Hub) Close() error { return nil }

// Latest returns the most recent sample and whether there is one.
func (h *Hub) Latest() (imu.Sample, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.last, h.have
}

// Clients returns the number of connected websocket clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// subscribe registers ch and primes it with the latest sample.
func (h *Hub) subscribe(ch chan imu.Sample) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[ch] = struct{}{}
	if h.have {
		ch <- h.last
	}
}

func (h *Hub) unsubscribe(ch chan imu.Sample) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, ch)
}

// HandleSample serves the latest sample as JSON.
func (h *Hub) HandleSample(w http.ResponseWriter, r *http.Request) {
	s, ok := h.Latest()
	if !ok {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

// HandleWS streams samples to a websocket client until it disconnects.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	ch := make(chan imu.Sample, clientBuffer)
	h.subscribe(ch)
	defer h.unsubscribe(ch)

	// Clients only listen; reading is how a close frame is noticed.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case <-r.Context().Done():
			return
		case s := <-ch:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(s); err != nil {
				log.Printf("web: websocket write error: %v", err)
				return
			}
		}
	}
}

// Routes mounts the API, the websocket stream and static files from staticDir.
func (h *Hub) Routes(staticDir string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/sample", h.HandleSample)
	mux.HandleFunc("/ws", h.HandleWS)
	mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	return mux
}

// RunWeb subscribes to the sample topic and serves it over HTTP until ctx is
// cancelled.
func RunWeb(ctx context.Context, cfg *config.Config) error {
	if err := cfg.RequireBroker(); err != nil {
		return err
	}
	hub := NewHub()

	// 1) Connect to MQTT broker
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

	// 2) Every sample on the topic updates the hub
	token := client.Subscribe(cfg.TopicSample, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s imu.Sample
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("web: MQTT payload unmarshal error: %v", err)
			return
		}
		_ = hub.Write(s)
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: subscribed to MQTT topic %s", cfg.TopicSample)

	// 3) HTTP server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WebServerPort),
		Handler:           hub.Routes("web"),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("web: server listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
