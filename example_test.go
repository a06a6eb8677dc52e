package watchkit_test

import (
	"fmt"
	"log"
	"log/slog"
	"time"

	"github.com/gobeaver/watchkit"
)

// Watch a directory tree and react to semantic change events.
func ExampleWatch() {
	node, err := watchkit.Watch("/srv/data",
		watchkit.WithIgnoreCommonPatterns(true),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer node.Close(watchkit.ReasonNormal)

	unsub := node.OnChange(func(ev watchkit.ChangeEvent) {
		switch ev.Kind {
		case watchkit.Create:
			fmt.Println("new:", ev.Path)
		case watchkit.Update:
			fmt.Println("changed:", ev.Path)
		case watchkit.Delete:
			fmt.Println("gone:", ev.Path)
		}
	})
	defer unsub()
}

// Prefer polling with a custom interval, for network shares where event
// watching is rejected at bind time.
func ExampleWithPreferredMethods() {
	node, err := watchkit.Watch("/mnt/share",
		watchkit.WithPreferredMethods(watchkit.MethodPoll),
		watchkit.WithInterval(30*time.Second),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer node.Close(watchkit.ReasonNormal)

	fmt.Println(node.Method())
}

// Bridge a node's diagnostics into a structured logger.
func ExampleNode_LogTo() {
	node, err := watchkit.Watch("/srv/data")
	if err != nil {
		log.Fatal(err)
	}
	defer node.Close(watchkit.ReasonNormal)
	defer node.LogTo(slog.Default())()
}

// React to the watched path disappearing.
func ExampleNode_OnClose() {
	node, err := watchkit.Watch("/srv/data/report.csv")
	if err != nil {
		log.Fatal(err)
	}

	node.OnClose(func(reason watchkit.CloseReason) {
		if reason == watchkit.ReasonDeleted {
			fmt.Println("the report was deleted")
		}
	})
}
