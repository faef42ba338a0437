package main

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/video-mindmap/internal/config"
	"github.com/signalsfoundry/video-mindmap/internal/logging"
	"github.com/signalsfoundry/video-mindmap/internal/rpc"
	"github.com/signalsfoundry/video-mindmap/kb"
)

const smokeDocument = `{
  "root_topic": "Forest Tales",
  "nodes": [
    {"timestamp": [0, 10], "text": "t", "summary": ["s"], "keywords": ["k"], "named_entities": [],
     "emojis": "🌲", "best_image": "", "start_image": "", "topic": "Morning", "tts": ""},
    {"timestamp": [10, 20], "text": "t", "summary": ["s"], "keywords": ["k"], "named_entities": [],
     "emojis": "🦊", "best_image": "", "start_image": "", "topic": "Chase", "tts": ""}
  ]
}`

func TestMindMapServerStartupSmoke(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}

	docPath := filepath.Join(t.TempDir(), "forest.json")
	if err := os.WriteFile(docPath, []byte(smokeDocument), 0o644); err != nil {
		t.Fatalf("write document: %v", err)
	}

	cfg := config.Default()
	cfg.Server.GRPCAddr = lis.Addr().String()
	cfg.Server.MetricsAddr = ""
	cfg.Engine.Debounce = config.Duration(20 * time.Millisecond)
	cfg.Engine.PumpInterval = config.Duration(5 * time.Millisecond)

	log := logging.New(logging.Config{Level: "warn", Format: "text"})

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx, cfg, log, lis, docPath)
	}()

	conn, err := grpc.NewClient(cfg.Server.GRPCAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("grpc.NewClient: %v", err)
	}
	defer conn.Close()
	client := rpc.NewMindMapClient(conn)

	resp, err := client.LoadMap(ctx, &structpb.Struct{Fields: map[string]*structpb.Value{
		"document_id": structpb.NewStringValue(docPath),
	}})
	if err != nil {
		t.Fatalf("LoadMap: %v", err)
	}
	sessionID := resp.GetFields()["session_id"].GetStringValue()

	if _, err := client.Tick(ctx, &structpb.Struct{Fields: map[string]*structpb.Value{
		"session_id":   structpb.NewStringValue(sessionID),
		"current_time": structpb.NewNumberValue(12),
	}}); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	// The pump resolves the debounced tick on the wall clock.
	deadline := time.Now().Add(2 * time.Second)
	for {
		snap, err := client.GetSnapshot(ctx, &structpb.Struct{Fields: map[string]*structpb.Value{
			"session_id": structpb.NewStringValue(sessionID),
		}})
		if err != nil {
			t.Fatalf("GetSnapshot: %v", err)
		}
		if snap.GetFields()["active"].GetNumberValue() == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("active node never resolved to 1: %v", snap.GetFields()["active"])
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()

	if err := <-errCh; err != nil {
		t.Fatalf("server returned error: %v", err)
	}
}

func TestPreloadDocumentsRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"root_topic": ""}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	store := kb.NewKnowledgeBase()
	if err := preloadDocuments(context.Background(), store, logging.Noop(), []string{path}); err == nil {
		t.Fatalf("preloadDocuments accepted an invalid document")
	}
	if store.Len() != 0 {
		t.Fatalf("store has %d documents after failed preload", store.Len())
	}
}
