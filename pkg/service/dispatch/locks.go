// Copyright 2025 Ewout Prangsma
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
//
// Author Ewout Prangsma
//

package dispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/binkynet/PinWorker/model"
)

// ResourceLocks serializes access to hardware resources that are
// shared by multiple command sources.
type ResourceLocks struct {
	mutex sync.Mutex
	locks map[string]chan struct{}
}

// NewResourceLocks creates an empty set of locks.
func NewResourceLocks() *ResourceLocks {
	return &ResourceLocks{
		locks: make(map[string]chan struct{}),
	}
}

// LockKeys returns the identities of the locks needed for the given resource,
// in acquisition order.
func LockKeys(res model.Resource) []string {
	pinKey := fmt.Sprintf("pin:%d", res.Pin)
	if res.IsAnalog() {
		// Converter unit first, it is shared by all its channels
		return []string{fmt.Sprintf("adc:%d", res.Unit), pinKey}
	}
	return []string{pinKey}
}

// Acquire all locks for the given resource.
// On success, the returned function must be called to release them.
func (l *ResourceLocks) Acquire(ctx context.Context, res model.Resource) (func(), error) {
	keys := LockKeys(res)
	held := make([]chan struct{}, 0, len(keys))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			<-held[i]
		}
	}
	for _, key := range keys {
		ch := l.get(key)
		select {
		case ch <- struct{}{}:
			held = append(held, ch)
		case <-ctx.Done():
			release()
			return nil, ctx.Err()
		}
	}
	return release, nil
}

func (l *ResourceLocks) get(key string) chan struct{} {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	ch, found := l.locks[key]
	if !found {
		ch = make(chan struct{}, 1)
		l.locks[key] = ch
	}
	return ch
}
