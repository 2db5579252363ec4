// Copyright 2025 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package classfile defines the immutable class descriptor held by class
// repositories, together with its storage encoding.
// Package classfile 定义了类仓库中保存的不可变类描述符及其存储编码。
package classfile

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/rlp"
)

// ObjectClass is the root of every class hierarchy. It has no superclass.
const ObjectClass = "java.lang.Object"

// Access flags relevant to descriptor consumers.
const (
	AccPublic     uint16 = 0x0001
	AccFinal      uint16 = 0x0010
	AccInterface  uint16 = 0x0200
	AccAbstract   uint16 = 0x0400
	AccSynthetic  uint16 = 0x1000
	AccAnnotation uint16 = 0x2000
	AccEnum       uint16 = 0x4000
)

var (
	// ErrInvalidName is returned when a descriptor carries no class name.
	ErrInvalidName = errors.New("classfile: empty class name")

	// ErrNoRepository is returned when a class needs to resolve a related
	// class but is not attached to a live repository.
	// ErrNoRepository 表示类未关联到仍然存活的仓库。
	ErrNoRepository = errors.New("classfile: class is not attached to a repository")
)

// Repository is the part of a class repository a descriptor needs in order to
// resolve the classes it refers to.
type Repository interface {
	LoadClass(name string) (*Class, error)
}

// RepositoryRef yields the repository a class was stored in, or nil once that
// repository is gone. Implementations must not keep the repository alive.
type RepositoryRef func() Repository

// Descriptor is the plain, encodable form of a class descriptor.
type Descriptor struct {
	Name        string
	Super       string
	Interfaces  []string
	Major       uint16
	Minor       uint16
	AccessFlags uint16
	SourceFile  string
}

// Class is an immutable class descriptor.
//
// Apart from the back-reference to its repository, which is rewired every
// time the class is stored, nothing about a Class changes after construction.
type Class struct {
	desc Descriptor
	repo atomic.Pointer[RepositoryRef]
}

// NewClass constructs a class from the given descriptor. The descriptor is
// copied so later changes by the caller are not observed.
func NewClass(d Descriptor) (*Class, error) {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return nil, ErrInvalidName
	}
	d.Interfaces = slices.Clone(d.Interfaces)
	if d.Super == "" && d.Name != ObjectClass && d.AccessFlags&AccInterface == 0 {
		d.Super = ObjectClass
	}
	return &Class{desc: d}, nil
}

// Name returns the fully qualified class name.
func (c *Class) Name() string { return c.desc.Name }

// SuperclassName returns the name of the direct superclass, empty for the
// root class and for interfaces declared without one.
func (c *Class) SuperclassName() string { return c.desc.Super }

// InterfaceNames returns the names of the directly implemented interfaces.
func (c *Class) InterfaceNames() []string { return slices.Clone(c.desc.Interfaces) }

// Version returns the class file major and minor version.
func (c *Class) Version() (major, minor uint16) { return c.desc.Major, c.desc.Minor }

// AccessFlags returns the raw access flags.
func (c *Class) AccessFlags() uint16 { return c.desc.AccessFlags }

// SourceFile returns the recorded source file name, if any.
func (c *Class) SourceFile() string { return c.desc.SourceFile }

// IsInterface reports whether the class is an interface.
func (c *Class) IsInterface() bool { return c.desc.AccessFlags&AccInterface != 0 }

// Descriptor returns a copy of the plain descriptor.
func (c *Class) Descriptor() Descriptor {
	d := c.desc
	d.Interfaces = slices.Clone(d.Interfaces)
	return d
}

// String implements fmt.Stringer.
func (c *Class) String() string {
	kind := "class"
	if c.IsInterface() {
		kind = "interface"
	}
	return fmt.Sprintf("%s %s (v%d.%d)", kind, c.desc.Name, c.desc.Major, c.desc.Minor)
}

// SetRepository attaches the class to the repository behind ref.
// SetRepository 设置类到仓库的反向引用（非拥有引用）。
func (c *Class) SetRepository(ref RepositoryRef) {
	if ref == nil {
		c.repo.Store(nil)
		return
	}
	c.repo.Store(&ref)
}

// Repository returns the repository the class was last stored in, or nil if
// the class is detached or that repository has been collected.
func (c *Class) Repository() Repository {
	ref := c.repo.Load()
	if ref == nil {
		return nil
	}
	return (*ref)()
}

// SuperClass resolves the direct superclass through the owning repository.
// It returns nil, nil for classes without a superclass.
func (c *Class) SuperClass() (*Class, error) {
	if c.desc.Super == "" {
		return nil, nil
	}
	repo := c.Repository()
	if repo == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoRepository, c.desc.Name)
	}
	return repo.LoadClass(c.desc.Super)
}

// SuperClasses returns the superclass chain, nearest first.
func (c *Class) SuperClasses() ([]*Class, error) {
	var (
		chain []*Class
		seen  = mapset.NewThreadUnsafeSet(c.desc.Name)
	)
	for cur := c; ; {
		super, err := cur.SuperClass()
		if err != nil {
			return nil, err
		}
		if super == nil {
			return chain, nil
		}
		if !seen.Add(super.Name()) {
			return nil, fmt.Errorf("classfile: circular superclass chain at %s", super.Name())
		}
		chain = append(chain, super)
		cur = super
	}
}

// Interfaces resolves the directly implemented interfaces.
func (c *Class) Interfaces() ([]*Class, error) {
	if len(c.desc.Interfaces) == 0 {
		return nil, nil
	}
	repo := c.Repository()
	if repo == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoRepository, c.desc.Name)
	}
	ifaces := make([]*Class, 0, len(c.desc.Interfaces))
	for _, name := range c.desc.Interfaces {
		iface, err := repo.LoadClass(name)
		if err != nil {
			return nil, err
		}
		ifaces = append(ifaces, iface)
	}
	return ifaces, nil
}

// AllInterfaces returns the names of every interface the class implements,
// directly, through its superclasses or through interface inheritance,
// sorted alphabetically.
// AllInterfaces 返回类直接或间接实现的所有接口名称。
func (c *Class) AllInterfaces() ([]string, error) {
	var (
		all     = mapset.NewThreadUnsafeSet[string]()
		visited = mapset.NewThreadUnsafeSet[string]()
		queue   = []*Class{c}
	)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if !visited.Add(cur.Name()) {
			continue
		}
		if cur.IsInterface() && cur != c {
			all.Add(cur.Name())
		}
		super, err := cur.SuperClass()
		if err != nil {
			return nil, err
		}
		if super != nil {
			queue = append(queue, super)
		}
		ifaces, err := cur.Interfaces()
		if err != nil {
			return nil, err
		}
		queue = append(queue, ifaces...)
	}
	names := all.ToSlice()
	slices.Sort(names)
	return names, nil
}

// Encode serializes the class descriptor with RLP.
func Encode(c *Class) ([]byte, error) {
	return rlp.EncodeToBytes(&c.desc)
}

// Decode parses an RLP encoded descriptor into a detached class.
func Decode(blob []byte) (*Class, error) {
	var d Descriptor
	if err := rlp.DecodeBytes(blob, &d); err != nil {
		return nil, fmt.Errorf("classfile: invalid descriptor: %w", err)
	}
	return NewClass(d)
}
