// Copyright 2026 Stratum Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package purge

import (
	"context"
	"log/slog"
	"time"
)

// retry runs op up to attempts times with exponential backoff starting
// at base. The context is honored both between attempts and during the
// backoff sleep. Returns the last attempt's error when every attempt
// fails.
func retry(ctx context.Context, attempts int, base time.Duration, op func() error) error {
	if attempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if lastErr = op(); lastErr == nil {
			return nil
		}
		slog.Debug("purge step failed", "attempt", i+1, "of", attempts, "err", lastErr)

		if i == attempts-1 {
			break
		}

		timer := time.NewTimer(base << i)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}
