/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

type (
	changedMsg struct{}
	alertMsg   struct{ text string }
	confirmMsg struct {
		text  string
		reply chan bool
	}
)

// Notifier turns editor alerts, confirmations and change notifications into program messages.
// Messages are sent from a fresh goroutine: the editor may call in while Update is running.
type Notifier struct {
	mu   sync.Mutex
	send func(tea.Msg)
	done chan struct{}
}

func NewNotifier() *Notifier {
	return &Notifier{done: make(chan struct{})}
}

// Attach routes messages to send, usually (*tea.Program).Send.
func (n *Notifier) Attach(send func(tea.Msg)) {
	n.mu.Lock()
	n.send = send
	n.mu.Unlock()
}

// Detach stops delivery and declines every pending confirmation.
func (n *Notifier) Detach() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.send == nil {
		return
	}
	n.send = nil
	close(n.done)
}

func (n *Notifier) post(msg tea.Msg) bool {
	n.mu.Lock()
	send := n.send
	n.mu.Unlock()
	if send == nil {
		return false
	}
	go send(msg)
	return true
}

func (n *Notifier) Alert(text string) { n.post(alertMsg{text: text}) }

// Confirm blocks until the user answered the modal.
func (n *Notifier) Confirm(text string) bool {
	reply := make(chan bool, 1)
	if !n.post(confirmMsg{text: text, reply: reply}) {
		return false
	}
	select {
	case ok := <-reply:
		return ok
	case <-n.done:
		return false
	}
}

// Changed requests a re-render.
func (n *Notifier) Changed() { n.post(changedMsg{}) }
