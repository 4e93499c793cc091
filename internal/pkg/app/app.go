package app

import (
	"fmt"
	"log/slog"
	"strings"

	"tmi/config"
	"tmi/internal/app/adapters/api"
	"tmi/internal/app/adapters/chat"
	router "tmi/internal/app/adapters/http"
	"tmi/internal/app/adapters/http/handlers"
	"tmi/internal/app/domain/session"
	"tmi/internal/app/ports"
	"tmi/pkg/logger"
)

const configPath = "config.json"

func New() error {
	log := logger.New()

	manager, err := config.New(configPath)
	if err != nil {
		log.Fatal("Error loading config", err)
	}

	cfg := manager.Get()
	log.SetLogLevel(cfg.App.LogLevel)

	st := session.New()
	c := chat.New(logger.NewPrefixedLogger(log, "chat"), manager, st)
	helix := api.New(logger.NewPrefixedLogger(log, "helix"), manager)

	c.On(ports.EventMessage, func(e ports.Event) {
		cm, _ := e.Data["message"].(*ports.ChatMessage)
		if cm == nil {
			return
		}
		log.Debug(fmt.Sprintf("[%s] <%s> %s", cm.Channel, cm.Login, cm.Text))
	})

	c.On(ports.EventNotice, func(e ports.Event) {
		log.Info("Server notice", slog.String("channel", e.Channel), slog.String("msg_id", e.MsgID), slog.String("text", e.Text))
	})

	c.On(ports.EventEmoteSets, func(e ports.Event) {
		sets, err := helix.GetEmoteSets(splitSets(e.Text))
		if err != nil {
			log.Error("Error fetching emote sets", err)
			return
		}
		log.Debug("Emote sets updated", slog.Int("emotes", len(sets)))
	})

	c.On(ports.EventMaxReconnect, func(e ports.Event) {
		log.Fatal("Connection lost for good", chat.ErrMaxReconnect)
	})

	if err := c.Connect(); err != nil {
		return err
	}

	r := router.NewRouter(log, manager, func() handlers.ConnStatus {
		return handlers.ConnStatus{
			State:   c.State().String(),
			Joined:  st.Joined(),
			Latency: c.Latency(),
			Login:   c.Login(),
		}
	})
	return r.Run()
}

func splitSets(raw string) []string {
	var sets []string
	for _, s := range strings.Split(raw, ",") {
		if s != "" {
			sets = append(sets, s)
		}
	}
	return sets
}
