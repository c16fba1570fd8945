// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Iris Vonk, Velatura

package cmd

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Velatura/sideband/pkg/cantus"
	"github.com/Velatura/sideband/pkg/feed"
	"github.com/Velatura/sideband/pkg/midiport"
)

var (
	bridgeListen        string
	bridgeCORSOrigins   []string
	bridgeStatsInterval int
	bridgeLenient       bool
)

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Publish or follow a decoded sideband feed over WebSocket",
	Long: `The bridge republishes decoded sideband traffic as CBOR messages on a
WebSocket, so dashboards and downstream tools can follow the musical
context without speaking MIDI themselves.

  serve - decode the selected input and publish packets on /feed
  tail  - connect to a serving bridge and print its messages`,
}

var bridgeServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Decode sideband traffic and publish it as a WebSocket feed",
	Long: `Run the receiver pipeline on the selected input and publish every decoded
packet, protocol error, and periodic statistics snapshot to all WebSocket
subscribers on /feed. New subscribers get a greeting naming the feed
version and the controller the sideband rides on.

GET /health reports uptime and the subscriber count.`,
	Example: `  sideband bridge serve --input "IAC Driver Bus 1" --listen :8111
  sideband bridge serve --port /dev/ttyUSB0 --cors-origin https://studio.example.com`,
	RunE: runBridgeServe,
}

var bridgeTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Follow a serving bridge and print its feed",
	Example: `  sideband bridge tail --url ws://localhost:8111/feed
  sideband bridge tail --url wss://bridge.example.com/feed --username viewer`,
	RunE: runBridgeTail,
}

func init() {
	rootCmd.AddCommand(bridgeCmd)
	bridgeCmd.AddCommand(bridgeServeCmd)
	bridgeCmd.AddCommand(bridgeTailCmd)

	bridgeServeCmd.Flags().StringVar(&bridgeListen, "listen", ":8111", "HTTP listen address")
	bridgeServeCmd.Flags().StringSliceVar(&bridgeCORSOrigins, "cors-origin", nil, "Allowed CORS origins (default http://localhost:3000)")
	bridgeServeCmd.Flags().IntVar(&bridgeStatsInterval, "stats-interval", 10, "Statistics broadcast interval (seconds)")
	bridgeServeCmd.Flags().BoolVar(&bridgeLenient, "lenient", false, "Keep packets with unknown codes instead of rejecting them")
}

// requestLogger logs one line per HTTP request at a level matching its
// status class.
func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		event := logger.Info()
		if status >= 500 {
			event = logger.Error()
		} else if status >= 400 {
			event = logger.Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Int("bytes", c.Writer.Size()).
			Msg("http_request")
	}
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}

// displayAddr turns a listen address into something dialable for banners
func displayAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}

func runBridgeServe(cmd *cobra.Command, args []string) error {
	if err := requireRole(cantus.RoleReceiver); err != nil {
		return err
	}

	rx := newReceiver()
	rx.SetLenient(bridgeLenient)
	stats := cantus.NewStatistics()

	helloChannel := -1
	if midiChannel > 0 {
		helloChannel = midiChannel
	}
	hello, err := feed.NewHello(controlNumber(), helloChannel)
	if err != nil {
		return err
	}
	hub := newFeedHub(hello)

	events := make(chan cantus.Event, 128)
	stop, _, info, err := startEventStream(func(ev cantus.Event) {
		events <- ev
	})
	if err != nil {
		return err
	}
	defer stop()
	defer midiport.CloseDriver()

	// Decode in a separate goroutine so the receiver has a single owner;
	// the hub takes care of its own locking.
	go func() {
		statsTicker := time.NewTicker(time.Duration(bridgeStatsInterval) * time.Second)
		defer statsTicker.Stop()
		for {
			select {
			case ev := <-events:
				pkt, forwarded, err := rx.HandleEvent(ev)

				var anomalies []cantus.ValidationError
				if pkt != nil {
					anomalies = cantus.ValidatePacket(pkt)
				}
				stats.Update(pkt, forwarded, err, anomalies)
				stats.RecordBufferLen(rx.BufferLen())

				if err != nil {
					logProtocolError(err)
					if data, encErr := feed.NewErrorMessage(err); encErr == nil {
						hub.broadcast(data)
					}
				}
				if pkt != nil {
					log.Info().Str("packet", cantus.FormatPacket(pkt)).Msg("decoded")
					if data, encErr := feed.NewPacketMessage(pkt); encErr == nil {
						hub.broadcast(data)
					}
				}

			case <-statsTicker.C:
				stats.CalculateRates()
				if data, encErr := feed.NewStatsMessage(stats); encErr == nil {
					hub.broadcast(data)
				}
			}
		}
	}()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(log.Logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(bridgeCORSOrigins),
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = router.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	started := time.Now()
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(started).String(),
			"input":   info,
			"clients": hub.clientCount(),
			"version": rootCmd.Version,
		})
	})
	router.GET("/feed", hub.handleFeed)

	fmt.Printf("Sideband - Bridge\n")
	fmt.Printf("Input: %s\n", info)
	fmt.Printf("Controller: %d, channel: %s\n", ccNumber, channelLabel())
	fmt.Printf("Feed: ws://%s/feed\n", displayAddr(bridgeListen))
	fmt.Printf("Press Ctrl+C to exit\n\n")

	log.Info().Str("listen", bridgeListen).Msg("bridge serving")
	return router.Run(bridgeListen)
}

func runBridgeTail(cmd *cobra.Command, args []string) error {
	if wsURL == "" {
		return fmt.Errorf("--url is required (e.g. ws://localhost:8111/feed)")
	}

	password := ""
	if wsUsername != "" {
		var err error
		password, err = GetPassword()
		if err != nil {
			return err
		}
	}

	conn, err := dialWebSocket(wsURL, wsUsername, password, wsNoSSLVerify)
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("Sideband - Tail\n")
	fmt.Printf("Feed: %s\n", wsURL)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("feed closed: %w", err)
		}
		printFeedMessage(data)
	}
}

// printFeedMessage renders one feed frame as a line. Packet lines carry the
// sender's decode timestamp; everything else is stamped on arrival.
func printFeedMessage(data []byte) {
	msgType, payload, err := feed.ParseMessage(data)
	if err != nil {
		log.Warn().Err(err).Msg("bad feed message")
		return
	}

	stamp := time.Now().Format("15:04:05.000")
	switch msgType {
	case feed.MsgHello:
		info, err := feed.HelloFromPayload(payload)
		if err != nil {
			log.Warn().Err(err).Msg("bad hello payload")
			return
		}
		channel := "all"
		if info.Channel > 0 {
			channel = fmt.Sprintf("%d", info.Channel)
		}
		fmt.Printf("%s  HELLO   feed v%d, controller %d, channel %s\n",
			stamp, info.Version, info.ControlNumber, channel)

	case feed.MsgPacket:
		pkt, err := feed.PacketFromPayload(payload)
		if err != nil {
			log.Warn().Err(err).Msg("bad packet payload")
			return
		}
		if ts, ok := feed.PacketTimestamp(payload); ok {
			stamp = ts.Format("15:04:05.000")
		}
		fmt.Printf("%s  PACKET  %s\n", stamp, cantus.FormatPacket(pkt))

	case feed.MsgError:
		text, err := feed.ErrorFromPayload(payload)
		if err != nil {
			log.Warn().Err(err).Msg("bad error payload")
			return
		}
		fmt.Printf("%s  ERROR   %s\n", stamp, text)

	case feed.MsgStats:
		info, err := feed.StatsFromPayload(payload)
		if err != nil {
			log.Warn().Err(err).Msg("bad stats payload")
			return
		}
		fmt.Printf("%s  STATS   %d events, %d packets, %d errors, %.2f pkt/s\n",
			stamp, info.Events, info.Packets, info.Errors, info.Rate)

	default:
		fmt.Printf("%s  %s  %d bytes\n", stamp, feed.FormatMessageType(msgType), len(data))
	}
}
