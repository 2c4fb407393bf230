package serializer

import (
	"fmt"
	"github.com/sfdaemon/dapi/rpc/common"
	"testing"
)

// benchmarkMessages returns a set of messages for targeted benchmarking
func benchmarkMessages() map[string]common.Message {
	manyServices := make([]common.ServiceInfo, 0, 100)
	for i := 0; i < 100; i++ {
		manyServices = append(manyServices, common.ServiceInfo{
			ID:      fmt.Sprintf("service.number.%d", i),
			Status:  int32(i % 3),
			Version: "1.2.3",
		})
	}

	return map[string]common.Message{
		"Ack":            *common.NewAckResponse(),
		"ServiceRequest": *common.NewServiceStateRequest("some.service.id"),
		"Error":          *common.NewErrorResponse(-1, "Lorem ipsum dolor sit amet, consectetur adipiscing elit."),
		"State": *common.NewStateResponse(common.DaemonState{
			StatusCode:    1,
			StatusMessage: "ok",
			StartTime:     1412121212,
			Version:       "0.1.0",
			VersionDate:   "2014-10-01",
			ConfigVersion: "abc123",
		}),
		"SmallServiceList": *common.NewServiceListResponse(manyServices[:3]),
		"LargeServiceList": *common.NewServiceListResponse(manyServices),
	}
}

// BenchmarkSerialize benchmarks serialization for all implementations with various message types
func BenchmarkSerialize(b *testing.B) {
	messages := benchmarkMessages()

	for name, factory := range testSerializers {
		for msgName, msg := range messages {
			b.Run(name+"_"+msgName, func(b *testing.B) {
				serializer := factory()
				b.ResetTimer()

				for i := 0; i < b.N; i++ {
					if _, err := serializer.Serialize(msg); err != nil {
						b.Fatalf("Failed to serialize: %v", err)
					}
				}
			})
		}
	}
}

// BenchmarkDeserialize benchmarks deserialization for all implementations with various message types
func BenchmarkDeserialize(b *testing.B) {
	messages := benchmarkMessages()

	for name, factory := range testSerializers {
		for msgName, msg := range messages {
			serializer := factory()
			data, err := serializer.Serialize(msg)
			if err != nil {
				b.Fatalf("Failed to serialize %s with %s: %v", msgName, name, err)
			}

			b.Run(name+"_"+msgName, func(b *testing.B) {
				b.ReportMetric(float64(len(data)), "bytes")
				b.ResetTimer()

				for i := 0; i < b.N; i++ {
					var msg common.Message
					if err := serializer.Deserialize(data, &msg); err != nil {
						b.Fatalf("Failed to deserialize: %v", err)
					}
				}
			})
		}
	}
}
