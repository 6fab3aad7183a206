package tmodel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaytrace/tmodel/internal/accumulator"
)

const scenarioABlob = `TRUE {"packet_model":{"state_space":["s0";"s1";"End"];"observation_space":["+";"-";"F"];` +
	`"start_probability":{"s0":0.2;"s1":0.8;"End":0.0};` +
	`"transition_probability":{"s0":{"s0":0.75;"s1":0.25;"End":0.0};"s1":{"s0":0.5;"s1":0.0;"End":0.5};"End":{"s0":0.0;"s1":0.0;"End":1.0}};` +
	`"emission_probability":{"s0":{"+":[0.8;12.0;0.01;0];"-":[0.2;5.5;3.0;0];"F":[0.0]};` +
	`"s1":{"+":[0.1;3.8;1.7;0];"-":[0.9;1.4;0.9;0];"F":[0.0]};` +
	`"End":{"+":[0.0;0.0;0.0;0];"-":[0.0;0.0;0.0;0];"F":[1.0]}}}}`

type recordingEmitter struct {
	packetPaths []string
	streamPaths []string
}

func (r *recordingEmitter) EmitViterbiPackets(path string) { r.packetPaths = append(r.packetPaths, path) }
func (r *recordingEmitter) EmitViterbiStreams(path string) { r.streamPaths = append(r.streamPaths, path) }

func TestEngineInlineDecodeScenarioA(t *testing.T) {
	emitter := &recordingEmitter{}
	cfg := Defaults()
	e, err := New(cfg, emitter)
	require.NoError(t, err)
	defer e.Close()

	require.NoError(t, e.SetModel(context.Background(), []byte(scenarioABlob)))

	acc := e.NewPacketAccumulator()
	require.NotNil(t, acc)

	acc.Observe(accumulator.PacketSent, 1434)
	acc.Observe(accumulator.PacketSent, 1434)
	acc.Observe(accumulator.PacketRecv, 1434)
	acc.Observe(accumulator.PacketRecv, 1434)
	e.FreePacket(acc)

	require.Len(t, emitter.packetPaths, 1)
	assert.NotEqual(t, "[]", emitter.packetPaths[0])
	assert.Contains(t, emitter.packetPaths[0], "End")
}

func TestEngineEmptyPathSentinel(t *testing.T) {
	emitter := &recordingEmitter{}
	cfg := Defaults()
	e, err := New(cfg, emitter)
	require.NoError(t, err)
	defer e.Close()

	require.NoError(t, e.SetModel(context.Background(), []byte(scenarioABlob)))

	acc := e.NewPacketAccumulator()
	require.NotNil(t, acc)
	e.FreePacket(acc)

	require.Len(t, emitter.packetPaths, 1)
	assert.Equal(t, "[]", emitter.packetPaths[0])
}

func TestEngineClearThenAccumulatorIsNil(t *testing.T) {
	emitter := &recordingEmitter{}
	cfg := Defaults()
	e, err := New(cfg, emitter)
	require.NoError(t, err)
	defer e.Close()

	require.NoError(t, e.SetModel(context.Background(), []byte(scenarioABlob)))
	e.Clear(context.Background())

	assert.Nil(t, e.NewPacketAccumulator())
	assert.Nil(t, e.NewStreamAccumulator(false))
}

func TestEngineTelemetryDisabledNeverAccumulates(t *testing.T) {
	emitter := &recordingEmitter{}
	cfg := Defaults()
	cfg.TelemetryEnabled = false
	e, err := New(cfg, emitter)
	require.NoError(t, err)
	defer e.Close()

	require.NoError(t, e.SetModel(context.Background(), []byte(scenarioABlob)))
	assert.Nil(t, e.NewPacketAccumulator())
}
