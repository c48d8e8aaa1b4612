package conversation

import (
	"context"
	"time"
)

// Run sweeps expired drafts until ctx is done.
func (m *Machine) Run(ctx context.Context) {
	if m.timeout <= 0 {
		return
	}
	ticker := time.NewTicker(m.timeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.log.Debugw("swept expired drafts", "count", n)
			}
		}
	}
}

// Sweep discards every expired draft and returns how many it removed.
func (m *Machine) Sweep() int {
	var users []string
	m.drafts.Range(func(k, _ any) bool {
		users = append(users, k.(string))
		return true
	})

	removed := 0
	for _, userID := range users {
		userID := userID
		m.keys.Do(userID, func() {
			v, ok := m.drafts.Load(userID)
			if !ok {
				return
			}
			if d := v.(*Draft); m.expired(d, m.now()) {
				m.expire(userID, d)
				removed++
			}
		})
	}
	return removed
}
