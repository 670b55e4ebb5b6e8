package driver

import (
	"context"
	"time"

	"github.com/jdemeulenaere/compose-driver/internal/engine"
	"github.com/jdemeulenaere/compose-driver/internal/fault"
	"github.com/jdemeulenaere/compose-driver/internal/ui"
)

// WaitForNode polls the tree until s matches at least one node, or at least
// one root is shown for a nil selector. Each check runs on the UI context
// after an idle wait; the UI context is released between checks.
func (d *Driver) WaitForNode(ctx context.Context, s *ui.Selector, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		found, err := engine.Call(ctx, d.engine, "waitForNode", func() (bool, error) {
			d.harness.WaitForIdle()
			if s == nil {
				return len(d.harness.Roots()) > 0, nil
			}
			return len(ui.FindAll(d.harness.Roots(), s)) > 0, nil
		})
		if err != nil {
			return err
		}
		if found {
			return nil
		}
		if !time.Now().Before(deadline) {
			return fault.NodeResolution("Timed out after %dms waiting for a node matching %s",
				timeout.Milliseconds(), s)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(min(d.opts.PollInterval, time.Until(deadline))):
		}
	}
}
