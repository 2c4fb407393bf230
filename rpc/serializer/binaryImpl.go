package serializer

import (
	"encoding/binary"
	"fmt"
	"github.com/sfdaemon/dapi/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional payloads are present
const (
	hasError        byte = 1 << 0
	hasState        byte = 1 << 1
	hasServiceList  byte = 1 << 2
	hasServiceID    byte = 1 << 3
	hasServiceState byte = 1 << 4
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	// Calculate total size needed
	w := &binaryWriter{buf: make([]byte, b.sizeBytes(msg))}

	// Write message code, flags are patched in once known
	w.putByte(byte(msg.Code))
	w.putByte(0)

	var flags byte = 0

	// Handle Error
	if msg.Error != nil {
		flags |= hasError
		w.putUint32(uint32(msg.Error.Code))
		w.putString(msg.Error.Message)
	}

	// Handle State
	if msg.State != nil {
		flags |= hasState
		w.putUint64(uint64(msg.State.StatusCode))
		w.putString(msg.State.StatusMessage)
		w.putUint64(uint64(msg.State.StartTime))
		w.putString(msg.State.Version)
		w.putString(msg.State.VersionDate)
		w.putString(msg.State.ConfigVersion)
	}

	// Handle ServiceList
	if msg.ServiceList != nil {
		flags |= hasServiceList
		w.putServiceInfos(msg.ServiceList.Items)
	}

	// Handle ServiceID
	if msg.ServiceID != nil {
		flags |= hasServiceID
		w.putString(msg.ServiceID.ServiceID)
	}

	// Handle ServiceState
	if msg.ServiceState != nil {
		flags |= hasServiceState
		w.putString(msg.ServiceState.Connector)
		w.putString(msg.ServiceState.Service)
		w.putUint32(uint32(msg.ServiceState.Status))
		w.putString(msg.ServiceState.Version)
		w.putServiceInfos(msg.ServiceState.Instances)
	}

	// Set flags byte after knowing which payloads are present
	w.buf[1] = flags

	return w.buf, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	// Check minimum size (Code + flags)
	if len(data) < 2 {
		return fmt.Errorf("data too short for message header")
	}

	*msg = common.Message{Code: common.MessageCode(data[0])}
	flags := data[1]
	r := &binaryReader{data: data, pos: 2}

	// Read Error if present
	if flags&hasError != 0 {
		msg.Error = &common.ErrorInfo{
			Code:    int32(r.uint32("error code")),
			Message: r.string("error message"),
		}
	}

	// Read State if present
	if flags&hasState != 0 {
		msg.State = &common.DaemonState{
			StatusCode:    int64(r.uint64("status code")),
			StatusMessage: r.string("status message"),
			StartTime:     int64(r.uint64("start time")),
			Version:       r.string("version"),
			VersionDate:   r.string("version date"),
			ConfigVersion: r.string("config version"),
		}
	}

	// Read ServiceList if present
	if flags&hasServiceList != 0 {
		msg.ServiceList = &common.ServiceList{Items: r.serviceInfos("service list")}
	}

	// Read ServiceID if present
	if flags&hasServiceID != 0 {
		msg.ServiceID = &common.ServiceID{ServiceID: r.string("service id")}
	}

	// Read ServiceState if present
	if flags&hasServiceState != 0 {
		msg.ServiceState = &common.ServiceState{
			Connector: r.string("connector"),
			Service:   r.string("service"),
			Status:    int32(r.uint32("service status")),
			Version:   r.string("service version"),
			Instances: r.serviceInfos("instances"),
		}
	}

	return r.err
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// sizeBytes calculates the total size needed for serialization
func (b binarySerializerImpl) sizeBytes(msg common.Message) int {
	// 1 byte for Code + 1 byte for flags
	size := 2

	if msg.Error != nil {
		size += 4 + 4 + len(msg.Error.Message)
	}
	if msg.State != nil {
		size += 8 + 8 // status code + start time
		size += 4*4 + len(msg.State.StatusMessage) + len(msg.State.Version) +
			len(msg.State.VersionDate) + len(msg.State.ConfigVersion)
	}
	if msg.ServiceList != nil {
		size += sizeServiceInfos(msg.ServiceList.Items)
	}
	if msg.ServiceID != nil {
		size += 4 + len(msg.ServiceID.ServiceID)
	}
	if msg.ServiceState != nil {
		size += 4*3 + len(msg.ServiceState.Connector) + len(msg.ServiceState.Service) + len(msg.ServiceState.Version)
		size += 4 // status
		size += sizeServiceInfos(msg.ServiceState.Instances)
	}

	return size
}

// sizeServiceInfos returns the encoded size of a list of service entries
func sizeServiceInfos(items []common.ServiceInfo) int {
	size := 4 // item count
	for _, item := range items {
		size += 4 + len(item.ID) + 4 + 4 + len(item.Version)
	}
	return size
}

// binaryWriter writes into a buffer sized by sizeBytes
type binaryWriter struct {
	buf []byte
	pos int
}

func (w *binaryWriter) putByte(v byte) {
	w.buf[w.pos] = v
	w.pos++
}

func (w *binaryWriter) putUint32(v uint32) {
	binary.BigEndian.PutUint32(w.buf[w.pos:w.pos+4], v)
	w.pos += 4
}

func (w *binaryWriter) putUint64(v uint64) {
	binary.BigEndian.PutUint64(w.buf[w.pos:w.pos+8], v)
	w.pos += 8
}

func (w *binaryWriter) putString(s string) {
	w.putUint32(uint32(len(s)))
	w.pos += copy(w.buf[w.pos:], s)
}

func (w *binaryWriter) putServiceInfos(items []common.ServiceInfo) {
	w.putUint32(uint32(len(items)))
	for _, item := range items {
		w.putString(item.ID)
		w.putUint32(uint32(item.Status))
		w.putString(item.Version)
	}
}

// binaryReader reads from a serialized message and keeps the first error.
// After an error all reads return zero values.
type binaryReader struct {
	data []byte
	pos  int
	err  error
}

func (r *binaryReader) need(n int, field string) bool {
	if r.err != nil {
		return false
	}
	if n < 0 || r.pos+n > len(r.data) {
		r.err = fmt.Errorf("data too short for %s", field)
		return false
	}
	return true
}

func (r *binaryReader) uint32(field string) uint32 {
	if !r.need(4, field) {
		return 0
	}
	v := binary.BigEndian.Uint32(r.data[r.pos : r.pos+4])
	r.pos += 4
	return v
}

func (r *binaryReader) uint64(field string) uint64 {
	if !r.need(8, field) {
		return 0
	}
	v := binary.BigEndian.Uint64(r.data[r.pos : r.pos+8])
	r.pos += 8
	return v
}

func (r *binaryReader) string(field string) string {
	n := int(r.uint32(field + " length"))
	if !r.need(n, field) {
		return ""
	}
	s := string(r.data[r.pos : r.pos+n])
	r.pos += n
	return s
}

func (r *binaryReader) serviceInfos(field string) []common.ServiceInfo {
	count := int(r.uint32(field + " count"))
	if r.err != nil || count == 0 {
		return nil
	}
	// every entry needs at least 12 bytes, reject counts the data cannot hold
	if !r.need(count*12, field) {
		return nil
	}
	items := make([]common.ServiceInfo, 0, count)
	for i := 0; i < count && r.err == nil; i++ {
		items = append(items, common.ServiceInfo{
			ID:      r.string(field + " id"),
			Status:  int32(r.uint32(field + " status")),
			Version: r.string(field + " version"),
		})
	}
	return items
}
