package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"github.com/feedwire/feedwire/api/pkg/config"
	"github.com/feedwire/feedwire/api/pkg/pubsub"
	"github.com/feedwire/feedwire/api/pkg/store"
	"github.com/feedwire/feedwire/api/pkg/system"
	"github.com/feedwire/feedwire/api/pkg/types"
)

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

type ServerTestSuite struct {
	suite.Suite

	ctx    context.Context
	cancel context.CancelFunc

	store     store.MessageStore
	pubsub    pubsub.PubSub
	apiServer *FeedAPIServer
	ts        *httptest.Server
}

func (suite *ServerTestSuite) SetupTest() {
	suite.ctx, suite.cancel = context.WithCancel(context.Background())

	st, err := store.NewPebbleStore(suite.T().TempDir())
	suite.Require().NoError(err)
	suite.store = st

	ps, err := pubsub.NewInMemoryNats()
	suite.Require().NoError(err)
	suite.pubsub = ps

	cfg := &config.ServerConfig{
		WebServer: config.WebServer{
			Host: "127.0.0.1",
			Port: 4877,
		},
	}

	apiServer, err := NewServer(cfg, st, ps)
	suite.Require().NoError(err)
	suite.apiServer = apiServer

	suite.ts = httptest.NewServer(apiServer.registerRoutes(suite.ctx))
}

func (suite *ServerTestSuite) TearDownTest() {
	suite.ts.Close()
	suite.cancel()
	suite.pubsub.Close()
	suite.Require().NoError(suite.store.Close())
}

func (suite *ServerTestSuite) publishMessage(author, text string) types.Message {
	body, err := json.Marshal(types.PublishRequest{Author: author, Text: text})
	suite.Require().NoError(err)

	resp, err := http.Post(suite.ts.URL+"/publish", "application/json", bytes.NewReader(body))
	suite.Require().NoError(err)
	defer resp.Body.Close()
	suite.Require().Equal(http.StatusOK, resp.StatusCode)

	var msg types.Message
	suite.Require().NoError(json.NewDecoder(resp.Body).Decode(&msg))
	return msg
}

func (suite *ServerTestSuite) listMessages() []types.Message {
	resp, err := http.Get(suite.ts.URL + "/messages")
	suite.Require().NoError(err)
	defer resp.Body.Close()
	suite.Require().Equal(http.StatusOK, resp.StatusCode)

	var messages []types.Message
	suite.Require().NoError(json.NewDecoder(resp.Body).Decode(&messages))
	return messages
}

func (suite *ServerTestSuite) TestPublishAndList() {
	first := suite.publishMessage("Alice", "hello")
	second := suite.publishMessage("Bob", "hi there")

	suite.True(strings.HasPrefix(first.ID, system.MessagePrefix))
	suite.True(strings.HasPrefix(second.ID, system.MessagePrefix))
	suite.NotEqual(first.ID, second.ID)
	suite.Greater(first.Timestamp, int64(0))

	messages := suite.listMessages()
	suite.Require().Len(messages, 2)
	suite.Equal(first, messages[0])
	suite.Equal(second, messages[1])
}

func (suite *ServerTestSuite) TestListEmptyIsNotNull() {
	resp, err := http.Get(suite.ts.URL + "/messages")
	suite.Require().NoError(err)
	defer resp.Body.Close()
	suite.Require().Equal(http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	suite.Require().NoError(err)
	suite.Equal("[]", strings.TrimSpace(string(body)))
}

func (suite *ServerTestSuite) TestPublishValidation() {
	testCases := []struct {
		name string
		body string
	}{
		{"empty body", `{}`},
		{"missing author", `{"text": "hello"}`},
		{"missing text", `{"author": "Alice"}`},
		{"whitespace author", `{"author": "   ", "text": "hello"}`},
		{"malformed json", `{"author": `},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			resp, err := http.Post(suite.ts.URL+"/publish", "application/json", strings.NewReader(tc.body))
			suite.Require().NoError(err)
			defer resp.Body.Close()
			suite.Equal(http.StatusBadRequest, resp.StatusCode)
		})
	}

	suite.Empty(suite.listMessages())
}

func (suite *ServerTestSuite) TestEditKeepsPosition() {
	first := suite.publishMessage("Alice", "hello")
	second := suite.publishMessage("Bob", "typo here")
	third := suite.publishMessage("Carol", "bye")

	body, err := json.Marshal(types.EditRequest{Text: "typo fixed"})
	suite.Require().NoError(err)

	req, err := http.NewRequest(http.MethodPut, suite.ts.URL+"/edit/"+second.ID, bytes.NewReader(body))
	suite.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	suite.Require().NoError(err)
	defer resp.Body.Close()
	suite.Require().Equal(http.StatusOK, resp.StatusCode)

	var edited types.Message
	suite.Require().NoError(json.NewDecoder(resp.Body).Decode(&edited))
	suite.Equal(second.ID, edited.ID)
	suite.Equal("Bob", edited.Author)
	suite.Equal("typo fixed", edited.Text)
	suite.GreaterOrEqual(edited.Timestamp, second.Timestamp)

	messages := suite.listMessages()
	suite.Require().Len(messages, 3)
	suite.Equal(first.ID, messages[0].ID)
	suite.Equal(second.ID, messages[1].ID)
	suite.Equal(third.ID, messages[2].ID)
	suite.Equal("typo fixed", messages[1].Text)
}

func (suite *ServerTestSuite) TestEditUnknownMessage() {
	body, err := json.Marshal(types.EditRequest{Text: "anything"})
	suite.Require().NoError(err)

	req, err := http.NewRequest(http.MethodPut, suite.ts.URL+"/edit/msg_does_not_exist", bytes.NewReader(body))
	suite.Require().NoError(err)

	resp, err := http.DefaultClient.Do(req)
	suite.Require().NoError(err)
	defer resp.Body.Close()
	suite.Equal(http.StatusNotFound, resp.StatusCode)
}

func (suite *ServerTestSuite) TestEditValidation() {
	msg := suite.publishMessage("Alice", "hello")

	req, err := http.NewRequest(http.MethodPut, suite.ts.URL+"/edit/"+msg.ID, strings.NewReader(`{"text": "  "}`))
	suite.Require().NoError(err)

	resp, err := http.DefaultClient.Do(req)
	suite.Require().NoError(err)
	defer resp.Body.Close()
	suite.Equal(http.StatusBadRequest, resp.StatusCode)

	messages := suite.listMessages()
	suite.Require().Len(messages, 1)
	suite.Equal("hello", messages[0].Text)
}

func (suite *ServerTestSuite) TestStatus() {
	suite.publishMessage("Alice", "one")
	suite.publishMessage("Bob", "two")

	resp, err := http.Get(suite.ts.URL + "/status")
	suite.Require().NoError(err)
	defer resp.Body.Close()
	suite.Require().Equal(http.StatusOK, resp.StatusCode)

	var status types.ServerStatus
	suite.Require().NoError(json.NewDecoder(resp.Body).Decode(&status))
	suite.Equal(2, status.Messages)
	suite.NotEmpty(status.Version)
}

func (suite *ServerTestSuite) TestCORSPreflight() {
	req, err := http.NewRequest(http.MethodOptions, suite.ts.URL+"/publish", http.NoBody)
	suite.Require().NoError(err)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")

	resp, err := http.DefaultClient.Do(req)
	suite.Require().NoError(err)
	defer resp.Body.Close()

	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Equal("*", resp.Header.Get("Access-Control-Allow-Origin"))
	suite.Contains(resp.Header.Get("Access-Control-Allow-Methods"), "PUT")
}

func (suite *ServerTestSuite) TestWebsocketBroadcast() {
	wsURL := system.WSURL(suite.ts.URL, "/ws")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	suite.Require().NoError(err)
	defer conn.Close()

	// Give the feed subscription time to establish
	time.Sleep(1 * time.Second)

	published := suite.publishMessage("Alice", "hello stream")

	suite.Require().NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, payload, err := conn.ReadMessage()
	suite.Require().NoError(err)

	var got types.Message
	suite.Require().NoError(json.Unmarshal(payload, &got))
	suite.Equal(published, got)

	// Edits are broadcast on the same stream
	body, err := json.Marshal(types.EditRequest{Text: "hello edited"})
	suite.Require().NoError(err)
	req, err := http.NewRequest(http.MethodPut, suite.ts.URL+"/edit/"+published.ID, bytes.NewReader(body))
	suite.Require().NoError(err)
	resp, err := http.DefaultClient.Do(req)
	suite.Require().NoError(err)
	resp.Body.Close()
	suite.Require().Equal(http.StatusOK, resp.StatusCode)

	suite.Require().NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, payload, err = conn.ReadMessage()
	suite.Require().NoError(err)

	suite.Require().NoError(json.Unmarshal(payload, &got))
	suite.Equal(published.ID, got.ID)
	suite.Equal("hello edited", got.Text)
}

func (suite *ServerTestSuite) TestEventsBroadcast() {
	resp, err := http.Get(suite.ts.URL + "/events")
	suite.Require().NoError(err)
	defer resp.Body.Close()

	suite.Require().Equal(http.StatusOK, resp.StatusCode)
	suite.Equal("text/event-stream", resp.Header.Get("Content-Type"))
	suite.Equal("no-cache", resp.Header.Get("Cache-Control"))

	dataCh := make(chan string, 1)
	go func() {
		reader := bufio.NewReader(resp.Body)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				return
			}
			line = strings.TrimSpace(line)
			if strings.HasPrefix(line, "data: ") {
				dataCh <- strings.TrimPrefix(line, "data: ")
				return
			}
		}
	}()

	// Give the feed subscription time to establish
	time.Sleep(1 * time.Second)

	published := suite.publishMessage("Bob", "hello events")

	select {
	case data := <-dataCh:
		var got types.Message
		suite.Require().NoError(json.Unmarshal([]byte(data), &got))
		suite.Equal(published, got)
	case <-time.After(2 * time.Second):
		suite.FailNow("timed out waiting for event stream frame")
	}
}
