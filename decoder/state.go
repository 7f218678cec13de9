// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package decoder

import "fmt"

// State 会话状态
type State int

// 会话状态
const (
	StateIdle State = iota
	StateSequenceReady
	StateError
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateSequenceReady:
		return "SEQUENCE_READY"
	case StateError:
		return "ERROR"
	case StateClosed:
		return "CLOSED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText 实现 encoding.TextMarshaler
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// stage 单个图像的生命周期阶段
type stage int

const (
	stagePictureOpen stage = iota // new picture 之后
	stageParamsSent               // start picture 之后
	stageSlicesSent               // 至少一个片提交之后
	stageExecuted                 // end picture 之后
	stageAbandoned                // 某一步失败，等待输出时丢弃
)

func (s stage) String() string {
	switch s {
	case stagePictureOpen:
		return "PICTURE_OPEN"
	case stageParamsSent:
		return "PARAMS_SENT"
	case stageSlicesSent:
		return "SLICES_SENT"
	case stageExecuted:
		return "EXECUTED"
	case stageAbandoned:
		return "ABANDONED"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// allowed 各回调允许的前置阶段
var allowed = map[string][]stage{
	"start_picture":  {stagePictureOpen},
	"decode_slice":   {stageParamsSent, stageSlicesSent},
	"end_picture":    {stageSlicesSent},
	"output_picture": {stageExecuted, stageAbandoned},
}

// check 检查图像是否处于 op 允许的阶段，已放弃的图像返回记录的失败
func (e *pictureEntry) check(op string) error {
	if e.stage == stageAbandoned && op != "output_picture" {
		return e.err
	}
	for _, s := range allowed[op] {
		if e.stage == s {
			return nil
		}
	}
	return fmt.Errorf("%w: %s in stage %s", ErrInvalidState, op, e.stage)
}

// abandon 记录图像级失败，图像在输出时被丢弃
func (e *pictureEntry) abandon(err error) {
	e.stage = stageAbandoned
	if e.err == nil {
		e.err = err
	}
}
