// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package memdrv 内存中的参考加速器驱动。
// 不做真正的解码，只管理 surface、记录提交的缓冲和执行的图像，并支持故障注入。
package memdrv

import (
	"fmt"
	"sync"

	"github.com/cnotch/queue"
	"github.com/cnotch/vadec/va"
	"github.com/cnotch/vadec/video"
	"github.com/cnotch/xlog"
)

const defaultSurfaces = 32

// Op 可注入故障的操作
type Op int

// 可注入故障的操作
const (
	OpOpen Op = iota
	OpNewPicture
	OpAddParam
	OpAddSlice
	OpDecode
)

// Execution 一次解码执行的记录
type Execution struct {
	Surface va.SurfaceID
	Params  []va.ParamBuffer
	Slices  []va.SliceBuffer
}

// Option 配置驱动的选项
type Option interface {
	apply(*Driver)
}

type optionFunc func(*Driver)

func (f optionFunc) apply(d *Driver) {
	f(d)
}

// WithProfiles 设置支持的 profile
func WithProfiles(profiles ...va.Profile) Option {
	return optionFunc(func(d *Driver) {
		d.profiles = make(map[va.Profile]bool, len(profiles))
		for _, p := range profiles {
			d.profiles[p] = true
		}
	})
}

// WithSurfaces 设置 surface 的数量上限
func WithSurfaces(n int) Option {
	return optionFunc(func(d *Driver) {
		if n > 0 {
			d.maxSurfaces = n
		}
	})
}

// WithLogger 设置日志对象
func WithLogger(l *xlog.Logger) Option {
	return optionFunc(func(d *Driver) {
		d.logger = l
	})
}

type surface struct {
	id   va.SurfaceID
	refs int
}

// Driver 实现 va.Decoder
type Driver struct {
	l           sync.Mutex
	profiles    map[va.Profile]bool
	maxSurfaces int

	open     bool
	profile  va.Profile
	rtFormat va.RTFormat
	width    int
	height   int

	nextSurface va.SurfaceID
	surfaces    map[*video.Buffer]*surface
	doubleFrees int

	executed queue.Queue
	faults   map[Op]error
	logger   *xlog.Logger
}

var _ va.Decoder = (*Driver)(nil)

// New 创建内存驱动，默认支持全部 H.264 profile
func New(opts ...Option) *Driver {
	d := &Driver{
		maxSurfaces: defaultSurfaces,
		profile:     va.ProfileNone,
		surfaces:    make(map[*video.Buffer]*surface),
		faults:      make(map[Op]error),
	}
	WithProfiles(va.ProfileH264ConstrainedBaseline, va.ProfileH264Main,
		va.ProfileH264High, va.ProfileH264MultiviewHigh, va.ProfileH264StereoHigh).apply(d)

	for _, opt := range opts {
		opt.apply(d)
	}
	if d.logger == nil {
		d.logger = xlog.L()
	}
	d.logger = d.logger.With(xlog.Fields(xlog.F("backend", "memory")))
	return d
}

// InjectFault 使下一次 op 操作返回 err
func (d *Driver) InjectFault(op Op, err error) {
	d.l.Lock()
	defer d.l.Unlock()
	d.faults[op] = err
}

func (d *Driver) fault(op Op) error {
	if err, ok := d.faults[op]; ok {
		delete(d.faults, op)
		return err
	}
	return nil
}

// Open 实现 va.Decoder
func (d *Driver) Open(profile va.Profile, rtFormat va.RTFormat) error {
	d.l.Lock()
	defer d.l.Unlock()

	if d.open {
		return va.ErrAlreadyOpen
	}
	if err := d.fault(OpOpen); err != nil {
		return err
	}
	if !d.profiles[profile] {
		return fmt.Errorf("%w: %s", va.ErrProfile, profile)
	}

	d.open = true
	d.profile = profile
	d.rtFormat = rtFormat
	d.width, d.height = 0, 0
	d.logger.Debugf("open profile %s, rt format %s", profile, rtFormat)
	return nil
}

// Close 实现 va.Decoder
func (d *Driver) Close() error {
	d.l.Lock()
	defer d.l.Unlock()

	if !d.open {
		return nil
	}
	d.open = false
	d.profile = va.ProfileNone
	d.rtFormat = 0
	d.width, d.height = 0, 0
	return nil
}

// IsOpen 实现 va.Decoder
func (d *Driver) IsOpen() bool {
	d.l.Lock()
	defer d.l.Unlock()
	return d.open
}

// SetFrameSize 实现 va.Decoder
func (d *Driver) SetFrameSize(width, height int) error {
	d.l.Lock()
	defer d.l.Unlock()

	if !d.open {
		return va.ErrNotOpen
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("va: invalid frame size %dx%d", width, height)
	}
	d.width, d.height = width, height
	return nil
}

// ConfigIsEqual 实现 va.Decoder
func (d *Driver) ConfigIsEqual(profile va.Profile, rtFormat va.RTFormat, width, height int) bool {
	d.l.Lock()
	defer d.l.Unlock()
	return d.open && d.profile == profile && d.rtFormat == rtFormat &&
		d.width == width && d.height == height
}

// HasProfile 实现 va.Decoder
func (d *Driver) HasProfile(profile va.Profile) bool {
	d.l.Lock()
	defer d.l.Unlock()
	return d.profiles[profile]
}

// NewDecodePicture 实现 va.Decoder
func (d *Driver) NewDecodePicture(buf *video.Buffer) (*va.DecodePicture, error) {
	d.l.Lock()
	defer d.l.Unlock()

	if !d.open {
		return nil, va.ErrNotOpen
	}
	if buf == nil {
		return nil, va.ErrNoSurface
	}
	if err := d.fault(OpNewPicture); err != nil {
		return nil, err
	}

	s, ok := d.surfaces[buf]
	if !ok {
		if len(d.surfaces) >= d.maxSurfaces {
			return nil, va.ErrNoSurface
		}
		s = &surface{id: d.nextSurface}
		d.nextSurface++
		d.surfaces[buf] = s
		buf.Surface = uint32(s.id)
	}
	s.refs++
	buf.Ref()

	return &va.DecodePicture{Buffer: buf, Surface: s.id}, nil
}

// AddParamBuffer 实现 va.Decoder
func (d *Driver) AddParamBuffer(pic *va.DecodePicture, typ va.BufferType, data interface{}) error {
	d.l.Lock()
	defer d.l.Unlock()

	if err := d.checkPicture(pic); err != nil {
		return err
	}
	if err := d.fault(OpAddParam); err != nil {
		return err
	}

	var copied interface{}
	switch v := data.(type) {
	case *va.PictureParameterBufferH264:
		if typ != va.PictureParameterBufferType {
			return fmt.Errorf("%w: %s with picture parameters", va.ErrBufferRejected, typ)
		}
		c := *v
		copied = &c
	case *va.IQMatrixBufferH264:
		if typ != va.IQMatrixBufferType {
			return fmt.Errorf("%w: %s with iq matrix", va.ErrBufferRejected, typ)
		}
		c := *v
		copied = &c
	default:
		return fmt.Errorf("%w: unsupported %s payload %T", va.ErrBufferRejected, typ, data)
	}

	pic.Params = append(pic.Params, va.ParamBuffer{Type: typ, Data: copied})
	return nil
}

// AddSliceBuffer 实现 va.Decoder
func (d *Driver) AddSliceBuffer(pic *va.DecodePicture, params *va.SliceParameterBufferH264, data []byte) error {
	d.l.Lock()
	defer d.l.Unlock()

	if err := d.checkPicture(pic); err != nil {
		return err
	}
	if err := d.fault(OpAddSlice); err != nil {
		return err
	}
	if int(params.SliceDataOffset)+int(params.SliceDataSize) > len(data) {
		return fmt.Errorf("%w: slice data %d+%d exceeds %d bytes",
			va.ErrBufferRejected, params.SliceDataOffset, params.SliceDataSize, len(data))
	}

	pic.Slices = append(pic.Slices, va.SliceBuffer{Params: *params, Data: data})
	return nil
}

// Decode 实现 va.Decoder
func (d *Driver) Decode(pic *va.DecodePicture) error {
	d.l.Lock()
	defer d.l.Unlock()

	if err := d.checkPicture(pic); err != nil {
		return err
	}
	defer func() {
		pic.Params = nil
		pic.Slices = nil
	}()

	if err := d.fault(OpDecode); err != nil {
		return err
	}
	if len(pic.Params) == 0 || len(pic.Slices) == 0 {
		return fmt.Errorf("%w: picture has %d parameter and %d slice buffers",
			va.ErrDecode, len(pic.Params), len(pic.Slices))
	}

	d.executed.Push(&Execution{
		Surface: pic.Surface,
		Params:  pic.Params,
		Slices:  pic.Slices,
	})
	return nil
}

// DestroyDecodePicture 实现 va.Decoder
func (d *Driver) DestroyDecodePicture(pic *va.DecodePicture) {
	d.l.Lock()
	defer d.l.Unlock()

	if pic == nil {
		return
	}
	if !pic.MarkReleased() {
		d.doubleFrees++
		d.logger.Warnf("surface %d released twice", pic.Surface)
		return
	}
	pic.Buffer.Release()

	s, ok := d.surfaces[pic.Buffer]
	if !ok {
		return
	}
	s.refs--
	if s.refs <= 0 {
		delete(d.surfaces, pic.Buffer)
	}
}

// ReadSurface 实现 va.Decoder，用 surface 号填充 dst
func (d *Driver) ReadSurface(id va.SurfaceID, dst []byte) (int, error) {
	d.l.Lock()
	defer d.l.Unlock()

	for _, s := range d.surfaces {
		if s.id == id {
			for i := range dst {
				dst[i] = byte(id)
			}
			return len(dst), nil
		}
	}
	return 0, fmt.Errorf("va: surface %d not found", id)
}

func (d *Driver) checkPicture(pic *va.DecodePicture) error {
	if !d.open {
		return va.ErrNotOpen
	}
	if pic == nil || pic.Released() {
		return va.ErrPictureReleased
	}
	return nil
}

// LiveSurfaces 仍被解码图像引用的 surface 数
func (d *Driver) LiveSurfaces() int {
	d.l.Lock()
	defer d.l.Unlock()
	return len(d.surfaces)
}

// DoubleFrees 重复释放的次数
func (d *Driver) DoubleFrees() int {
	d.l.Lock()
	defer d.l.Unlock()
	return d.doubleFrees
}

// Executions 返回全部执行记录
func (d *Driver) Executions() []*Execution {
	d.l.Lock()
	defer d.l.Unlock()

	elems := d.executed.Elems()
	execs := make([]*Execution, len(elems))
	for i, e := range elems {
		execs[i] = e.(*Execution)
	}
	return execs
}

// ResetExecutions 清空执行记录
func (d *Driver) ResetExecutions() {
	d.l.Lock()
	defer d.l.Unlock()
	d.executed.Reset()
}

// Config 当前打开的配置
func (d *Driver) Config() (profile va.Profile, rtFormat va.RTFormat, width, height int) {
	d.l.Lock()
	defer d.l.Unlock()
	return d.profile, d.rtFormat, d.width, d.height
}
