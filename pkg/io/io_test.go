//
//  Copyright 2023 PayPal Inc.
//
//  Licensed to the Apache Software Foundation (ASF) under one or more
//  contributor license agreements.  See the NOTICE file distributed with
//  this work for additional information regarding copyright ownership.
//  The ASF licenses this file to You under the Apache License, Version 2.0
//  (the "License"); you may not use this file except in compliance with
//  the License.  You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.
//

package io

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"golang.org/x/net/nettest"

	"conduit/pkg/channel"
	cerrors "conduit/pkg/errors"
	"conduit/pkg/framing"
	"conduit/pkg/message"
)

func newCodec(t *testing.T, f framing.Format) *framing.Codec {
	t.Helper()
	codec, err := framing.NewCodec(f)
	if err != nil {
		t.Fatal(err)
	}
	return codec
}

func TestSocketWriterFormats(t *testing.T) {
	ln, err := nettest.NewLocalListener("tcp")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	received := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		data, _ := io.ReadAll(conn)
		received <- data
	}()

	conn, err := Connect(&ServiceEndpoint{Addr: ln.Addr().String()}, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	w := NewSocketWriter(conn, newCodec(t, framing.LengthHeader))
	w.SetWriteTimeout(time.Second)
	for _, f := range []framing.Format{framing.LengthHeader, framing.StxEtx, framing.Crlf} {
		if err = w.SetFormat(f); err != nil {
			t.Fatal(err)
		}
		if err = w.Write([]byte("abcdef")); err != nil {
			t.Fatal(err)
		}
	}
	conn.Close()

	expected := []byte{0, 0, 0, 6, 'a', 'b', 'c', 'd', 'e', 'f',
		0x02, 'a', 'b', 'c', 'd', 'e', 'f', 0x03,
		'a', 'b', 'c', 'd', 'e', 'f', 0x0D, 0x0A}
	select {
	case data := <-received:
		if !bytes.Equal(data, expected) {
			t.Errorf("expected % x, got % x", expected, data)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not receive data")
	}
}

func TestSocketWriterConcurrentWrites(t *testing.T) {
	const numWriters = 50
	const numFrames = 20
	var stream lockedBuffer
	w := NewSocketWriter(&stream, newCodec(t, framing.StxEtx))

	var wg sync.WaitGroup
	for i := 0; i < numWriters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < numFrames; j++ {
				w.Write([]byte(fmt.Sprintf("writer-%d-frame-%d", i, j)))
			}
		}(i)
	}
	wg.Wait()

	codec := newCodec(t, framing.StxEtx)
	r := bufio.NewReader(bytes.NewReader(stream.Bytes()))
	seen := make(map[string]bool)
	for {
		payload, err := codec.Decode(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("torn frame: %s", err)
		}
		seen[string(payload)] = true
	}
	if len(seen) != numWriters*numFrames {
		t.Errorf("expected %d frames, got %d", numWriters*numFrames, len(seen))
	}
}

// lockedBuffer takes its lock per byte, so writes that are not serialized
// by the caller interleave.
type lockedBuffer struct {
	mtx sync.Mutex
	bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	for i := range p {
		b.mtx.Lock()
		b.Buffer.WriteByte(p[i])
		b.mtx.Unlock()
	}
	return len(p), nil
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestSocketWriterError(t *testing.T) {
	w := NewSocketWriter(failingWriter{}, newCodec(t, framing.Crlf))
	if err := w.Write([]byte("abc")); !errors.Is(err, cerrors.ErrIO) {
		t.Errorf("expected io error, got %v", err)
	}
	if err := w.SetFormat(framing.Format(9)); !errors.Is(err, cerrors.ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
	if w.Format() != framing.Crlf {
		t.Error("failed SetFormat must keep the format")
	}
}

func TestSocketReader(t *testing.T) {
	codec := newCodec(t, framing.Crlf)
	r := NewSocketReader(bytes.NewReader([]byte("abc\r\ndef\r\n")), codec, 0)
	defer r.Release()
	for _, expected := range []string{"abc", "def"} {
		payload, err := r.Read()
		if err != nil {
			t.Fatal(err)
		}
		if string(payload) != expected {
			t.Errorf("expected %s, got %s", expected, payload)
		}
	}
	if _, err := r.Read(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

// startServer runs an inbound gateway whose responder appends suffix.
func startServer(t *testing.T, format framing.Format, suffix string) (*Listener, context.CancelFunc, chan error) {
	t.Helper()
	ln, err := nettest.NewLocalListener("tcp")
	if err != nil {
		t.Fatal(err)
	}
	requests := channel.NewQueueChannel(channel.WithName("inbound"))
	responder := channel.NewPollingConsumer(requests, channel.NewServiceActivator(
		func(ctx context.Context, m *message.Message) (interface{}, error) {
			return append(append([]byte(nil), m.Payload().([]byte)...), suffix...), nil
		}, nil))
	responder.SetConcurrency(4)
	responder.Start()
	t.Cleanup(responder.Stop)

	lsnr, err := NewListenerWith(ln, ListenerConfig{Name: "test"}, SocketConfig{Format: format}, requests, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- lsnr.Serve(ctx)
	}()
	t.Cleanup(cancel)
	return lsnr, cancel, done
}

func TestOutboundGatewayRoundTrip(t *testing.T) {
	for _, f := range []framing.Format{framing.LengthHeader, framing.StxEtx, framing.Crlf} {
		lsnr, _, _ := startServer(t, f, "!!!")
		gw, err := NewOutboundGateway(ServiceEndpoint{Addr: lsnr.Addr().String()}, SocketConfig{Format: f})
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 3; i++ {
			res, err := gw.Exchange(context.Background(), message.New(fmt.Sprintf("foo-%d", i)))
			if err != nil {
				t.Fatalf("%s: %s", f, err)
			}
			if expected := fmt.Sprintf("foo-%d!!!", i); res != expected {
				t.Errorf("%s: expected %s, got %v", f, expected, res)
			}
		}
		gw.Close()
	}
}

func TestOutboundGatewayThroughChannel(t *testing.T) {
	lsnr, _, _ := startServer(t, framing.LengthHeader, "bar")
	gw, err := NewOutboundGateway(ServiceEndpoint{Addr: lsnr.Addr().String()}, SocketConfig{})
	if err != nil {
		t.Fatal(err)
	}
	defer gw.Close()

	requests := channel.NewDirectChannel()
	requests.Subscribe(gw.Handler(nil))
	replies := channel.NewQueueChannel()
	if err = requests.Send(context.Background(), message.New([]byte("foo"), message.WithReplyChannel(replies))); err != nil {
		t.Fatal(err)
	}
	reply, ok := channel.ReceiveTimeout(replies, time.Second)
	if !ok {
		t.Fatal("no reply")
	}
	if !bytes.Equal(reply.Payload().([]byte), []byte("foobar")) {
		t.Errorf("expected foobar, got %q", reply.Payload())
	}
}

func TestOutboundAdapter(t *testing.T) {
	ln, err := nettest.NewLocalListener("tcp")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	frames := make(chan string, 2)
	codec := newCodec(t, framing.StxEtx)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := NewSocketReader(conn, codec, 0)
		for i := 0; i < 2; i++ {
			payload, err := r.Read()
			if err != nil {
				return
			}
			frames <- string(payload)
		}
	}()

	adapter, err := NewOutboundAdapter(ServiceEndpoint{Addr: ln.Addr().String()}, SocketConfig{Format: framing.StxEtx})
	if err != nil {
		t.Fatal(err)
	}
	defer adapter.Close()
	for _, p := range []interface{}{"one", 2} {
		if err = adapter.HandleMessage(context.Background(), message.New(p)); err != nil {
			t.Fatal(err)
		}
	}
	for _, expected := range []string{"one", "2"} {
		select {
		case got := <-frames:
			if got != expected {
				t.Errorf("expected %s, got %s", expected, got)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("frame not received")
		}
	}
}

func TestListenerShutdown(t *testing.T) {
	lsnr, cancel, done := startServer(t, framing.Crlf, "")
	conn, err := net.Dial("tcp", lsnr.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	w := NewSocketWriter(conn, newCodec(t, framing.Crlf))
	r := NewSocketReader(conn, newCodec(t, framing.Crlf), 0)
	w.Write([]byte("ping"))
	if payload, err := r.Read(); err != nil || string(payload) != "ping" {
		t.Fatalf("unexpected echo %q %v", payload, err)
	}
	if n := lsnr.GetNumActiveConnections(); n != 1 {
		t.Errorf("expected 1 active connection, got %d", n)
	}

	cancel()
	select {
	case err = <-done:
		if err != nil {
			t.Errorf("serve: %s", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("listener did not stop")
	}
	if !lsnr.WaitForShutdownToComplete(5 * time.Second) {
		t.Fatal("connections still open")
	}
	if n := lsnr.GetNumActiveConnections(); n != 0 {
		t.Errorf("expected no active connections, got %d", n)
	}
	if _, err = r.Read(); err == nil {
		t.Error("connection should be closed by the server")
	}
}

func TestConnectFailure(t *testing.T) {
	ln, err := nettest.NewLocalListener("tcp")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()
	if _, err = Connect(&ServiceEndpoint{Addr: addr}, time.Second); !errors.Is(err, cerrors.ErrIO) {
		t.Errorf("expected io error, got %v", err)
	}
	gw, _ := NewOutboundGateway(ServiceEndpoint{Addr: addr}, SocketConfig{})
	if _, err = gw.Exchange(context.Background(), message.New("x")); !errors.Is(err, cerrors.ErrIO) {
		t.Errorf("expected io error, got %v", err)
	}
	if _, err = NewOutboundGateway(ServiceEndpoint{}, SocketConfig{}); err == nil {
		t.Error("missing address should be rejected")
	}
}

func TestSocketConfigDefaults(t *testing.T) {
	var conf SocketConfig
	if !conf.SetDefaultIfNotDefined() {
		t.Error("defaults should be applied")
	}
	if conf.MaxMessageSize != framing.DefaultMaxMessageSize || conf.Format != framing.LengthHeader {
		t.Errorf("unexpected defaults %+v", conf)
	}
	if conf.SetDefaultIfNotDefined() {
		t.Error("second call should change nothing")
	}
	conf = SocketConfig{ReadTimeout: DefaultSocketConfig.IdleTimeout}
	conf.ReadTimeout.Duration *= 2
	conf.SetDefaultIfNotDefined()
	if conf.IdleTimeout.Duration != 2*conf.ReadTimeout.Duration {
		t.Errorf("idle timeout %s should follow read timeout %s", conf.IdleTimeout.Duration, conf.ReadTimeout.Duration)
	}
}

func TestServiceEndpoint(t *testing.T) {
	var ep ServiceEndpoint
	ep.SetFromConnString("8080")
	if ep.GetConnString() != ":8080" {
		t.Errorf("unexpected %s", ep.GetConnString())
	}
	ep.SetFromConnString("tcp://localhost:9000")
	if ep.Addr != "localhost:9000" || ep.GetNetwork() != "tcp" {
		t.Errorf("unexpected %+v", ep)
	}
}

func TestDeadlineClearedAfterBoundedCall(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()
	codec := newCodec(t, framing.Crlf)
	w := NewSocketWriter(client, codec)
	r := NewSocketReader(server, codec, 0)
	defer r.Release()

	frames := make(chan []byte, 2)
	go func() {
		for {
			payload, err := r.Read()
			if err != nil {
				close(frames)
				return
			}
			frames <- payload
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := w.WriteContext(ctx, []byte("bounded")); err != nil {
		t.Fatalf("bounded write: %s", err)
	}
	<-frames
	time.Sleep(50 * time.Millisecond)
	if err := w.Write([]byte("unbounded")); err != nil {
		t.Fatalf("write after the earlier deadline passed: %s", err)
	}
	if payload := <-frames; string(payload) != "unbounded" {
		t.Errorf("unexpected payload %q", payload)
	}
}

func TestReadDeadlineClearedAfterBoundedCall(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()
	codec := newCodec(t, framing.Crlf)
	r := NewSocketReader(server, codec, 0)
	defer r.Release()

	go client.Write([]byte("first\r\n"))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if payload, err := r.ReadContext(ctx); err != nil || string(payload) != "first" {
		t.Fatalf("bounded read: %q %v", payload, err)
	}

	short, cancelShort := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancelShort()
	if _, err := r.ReadContext(short); err == nil {
		t.Fatal("expected the bounded read to time out")
	}
	time.Sleep(30 * time.Millisecond)
	go func() {
		time.Sleep(20 * time.Millisecond)
		client.Write([]byte("second\r\n"))
	}()
	if payload, err := r.Read(); err != nil || string(payload) != "second" {
		t.Fatalf("read after the earlier deadline passed: %q %v", payload, err)
	}
}

func TestConnTableRefusesAfterShutdown(t *testing.T) {
	table := newConnTable("test")
	newConnector := func() (*Connector, net.Conn) {
		client, server := net.Pipe()
		ctx, cancel := context.WithCancel(context.Background())
		codec := newCodec(t, framing.Crlf)
		return &Connector{
			conn:      server,
			reader:    NewSocketReader(server, codec, 0),
			writer:    NewSocketWriter(server, codec),
			requests:  channel.NewQueueChannel(),
			conns:     table,
			ctx:       ctx,
			cancelCtx: cancel,
		}, client
	}

	live, liveClient := newConnector()
	defer liveClient.Close()
	live.Start()
	if st := table.snapshot(); st.Active != 1 || st.Accepted != 1 {
		t.Fatalf("unexpected stats %+v", st)
	}

	table.shutdown()
	late, lateClient := newConnector()
	defer lateClient.Close()
	late.Start()
	if _, err := lateClient.Read(make([]byte, 1)); err == nil {
		t.Error("late connection should be closed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if !table.drain(ctx) {
		t.Fatal("table did not drain")
	}
	st := table.snapshot()
	if st.Active != 0 || st.Accepted != 1 || st.Closed != 1 || st.Rejected != 1 {
		t.Errorf("unexpected stats %+v", st)
	}
}
