// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package actor

import (
	"github.com/tochemey/goflow/port"
)

// Connect wires the out port of src to the in port of dst, both hosted on
// the node nodeID, and notifies the two actors
func Connect(src Actor, outport string, dst Actor, inport string, nodeID string) error {
	out, err := src.OutPort(outport)
	if err != nil {
		return err
	}
	in, err := dst.InPort(inport)
	if err != nil {
		return err
	}

	out.Attach(port.NewLocalOutEndpoint(out, in, nodeID))
	in.Attach(port.NewLocalInEndpoint(in, out, nodeID))

	src.DidConnect(out.Port)
	dst.DidConnect(in.Port)
	return nil
}

// Disconnect removes the connection between the out port of src and the in
// port of dst and notifies the two actors
func Disconnect(src Actor, outport string, dst Actor, inport string) error {
	out, err := src.OutPort(outport)
	if err != nil {
		return err
	}
	in, err := dst.InPort(inport)
	if err != nil {
		return err
	}

	if _, ok := out.Detach(in.ID()); ok {
		src.DidDisconnect(out.Port)
	}
	if _, ok := in.Detach(out.ID()); ok {
		dst.DidDisconnect(in.Port)
	}
	return nil
}
