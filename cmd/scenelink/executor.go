package main

import (
	"fmt"
	"time"

	"github.com/codefionn/scenelink/internal/protocol"
	"github.com/codefionn/scenelink/internal/runloop"
	"github.com/codefionn/scenelink/internal/tempdir"
)

// demoExecutor is the built-in command executor for the serve command. A
// real host registers its own executor over its actual scene state; this
// one holds a static stand-in scene so the bridge can be exercised end to
// end.
type demoExecutor struct {
	payloads *tempdir.Manager
	started  time.Time
}

func newDemoExecutor(payloads *tempdir.Manager) runloop.Executor {
	return &demoExecutor{
		payloads: payloads,
		started:  time.Now(),
	}
}

func (e *demoExecutor) Execute(cmd *protocol.Command) *protocol.Response {
	switch cmd.Type {
	case "ping":
		return protocol.Success(map[string]interface{}{"pong": true})

	case "get_scene_info":
		return protocol.Success(map[string]interface{}{
			"name":         "Demo Scene",
			"object_count": 3,
			"objects": []map[string]interface{}{
				{"name": "Cube", "type": "MESH"},
				{"name": "Light", "type": "LIGHT"},
				{"name": "Camera", "type": "CAMERA"},
			},
			"uptime_seconds": int(time.Since(e.started).Seconds()),
		})

	case "save_snapshot":
		// Large payloads never travel inside a frame; write the data to
		// the shared payload directory and return only the path.
		path, err := e.payloads.WriteFile("snapshot", ".png", demoSnapshot())
		if err != nil {
			return protocol.Errorf("failed to write snapshot: %v", err)
		}
		return protocol.Success(map[string]interface{}{"path": path})

	default:
		return protocol.Errorf("unknown command type: %s", cmd.Type)
	}
}

// demoSnapshot fabricates a tiny placeholder payload.
func demoSnapshot() []byte {
	return []byte(fmt.Sprintf("PNG-PLACEHOLDER %d", time.Now().UnixNano()))
}
