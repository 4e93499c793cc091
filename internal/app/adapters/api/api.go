package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tmi/config"
	"tmi/internal/app/infrastructure/irc"
	"tmi/internal/app/infrastructure/storage"
	"tmi/internal/app/ports"
	"tmi/pkg/logger"
)

const defaultBaseURL = "https://api.twitch.tv/helix"

var _ ports.APIPort = (*API)(nil)

// API is the Helix REST helper next to the chat engine: identity and
// emote-set lookups, cached so repeated asks stay off the wire.
type API struct {
	log     logger.Logger
	manager *config.Manager
	client  *http.Client
	baseURL string

	userIDs   *storage.Cache[string]
	emoteSets *storage.Cache[[]ports.EmoteSet]
}

func New(log logger.Logger, manager *config.Manager) *API {
	return &API{
		log:     log,
		manager: manager,
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: defaultBaseURL,

		userIDs:   storage.NewCache[string](100, time.Hour),
		emoteSets: storage.NewCache[[]ports.EmoteSet](50, 10*time.Minute),
	}
}

type userResponse struct {
	Data []struct {
		ID    string `json:"id"`
		Login string `json:"login"`
	} `json:"data"`
}

type emoteSetResponse struct {
	Data []struct {
		ID         string `json:"id"`
		Name       string `json:"name"`
		EmoteSetID string `json:"emote_set_id"`
		OwnerID    string `json:"owner_id"`
	} `json:"data"`
}

// GetUserID resolves a login to the numeric user id.
func (a *API) GetUserID(login string) (string, error) {
	login = irc.NormalizeUsername(login)
	if id, ok := a.userIDs.Get(login); ok {
		return id, nil
	}

	var resp userResponse
	if err := a.doRequest("GET", a.baseURL+"/users?login="+url.QueryEscape(login), &resp); err != nil {
		return "", err
	}
	if len(resp.Data) == 0 {
		return "", fmt.Errorf("user %s not found", login)
	}

	a.userIDs.Set(login, resp.Data[0].ID)
	return resp.Data[0].ID, nil
}

// GetEmoteSets fetches the emotes of the given sets, typically the ids from
// the GLOBALUSERSTATE emote-sets tag.
func (a *API) GetEmoteSets(setIDs []string) ([]ports.EmoteSet, error) {
	if len(setIDs) == 0 {
		return nil, nil
	}

	key := strings.Join(setIDs, ",")
	if sets, ok := a.emoteSets.Get(key); ok {
		return sets, nil
	}

	params := url.Values{}
	for _, id := range setIDs {
		params.Add("emote_set_id", id)
	}

	var resp emoteSetResponse
	if err := a.doRequest("GET", a.baseURL+"/chat/emotes/set?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	sets := make([]ports.EmoteSet, 0, len(resp.Data))
	for _, e := range resp.Data {
		sets = append(sets, ports.EmoteSet{
			ID:      e.ID,
			Name:    e.Name,
			SetID:   e.EmoteSetID,
			OwnerID: e.OwnerID,
		})
	}

	a.emoteSets.Set(key, sets)
	return sets, nil
}

func (a *API) doRequest(method, url string, target any) error {
	cfg := a.manager.Get()

	req, _ := http.NewRequest(method, url, nil)
	req.Header.Set("Authorization", "Bearer "+irc.NormalizeToken(cfg.App.OAuth))
	req.Header.Set("Client-Id", cfg.App.ClientID)

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("helix returned %s: %s", resp.Status, string(raw))
	}

	return json.NewDecoder(resp.Body).Decode(target)
}
