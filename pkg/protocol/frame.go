package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxFrameSize 下行帧上限，GameStart 快照随地图尺寸增长
const MaxFrameSize = 1 << 20

// Frame 加上 4 字节大端长度前缀
func Frame(data []byte) []byte {
	buf := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(buf, uint32(len(data)))
	copy(buf[4:], data)
	return buf
}

// ReadFrame 读取一个长度前缀帧，空帧返回 nil
func ReadFrame(r io.Reader, limit uint32) ([]byte, error) {
	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return nil, err
	}
	if length > limit {
		return nil, fmt.Errorf("%w: 消息过大 (%d bytes)", ErrMalformed, length)
	}
	if length == 0 {
		return nil, nil
	}
	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}
