/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
)

// notifier prints alerts to stderr and asks confirmations on stdin unless --yes was given.
type notifier struct {
	mu  sync.Mutex
	out io.Writer
	in  *bufio.Reader
	yes bool
}

func newNotifier(out io.Writer, in io.Reader, yes bool) *notifier {
	n := &notifier{out: out, yes: yes}
	if in != nil {
		n.in = bufio.NewReader(in)
	}
	return n
}

func (n *notifier) Alert(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.out, errStyle.Render("error:"), msg)
}

func (n *notifier) Confirm(msg string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.yes {
		return true
	}
	fmt.Fprintf(n.out, "%s [y/N] ", msg)
	if n.in == nil {
		fmt.Fprintln(n.out)
		return false
	}
	line, err := n.in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(n.out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
