package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"t2nodes/pkg/contract"
	"t2nodes/pkg/registry"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Runtime 为装配完成的组件实例。
type Runtime struct {
	Reader contract.Reader
	Writer contract.Writer
	Nodes  map[string]contract.Node
}

// Validate 对配置做静态校验：结构体标签 + 注册表存在性 + Options/节点默认值可严格解码。
// 所有失败均包裹 contract.ErrConfigInvalid。
func Validate(cfg Config) error {
	_, err := Assemble(cfg)
	return err
}

// Assemble 校验并构造 Reader、Writer 与全部节点。
// 严格 Options 解析在 registry（工厂）层进行；此处只传 raw JSON。
func Assemble(cfg Config) (Runtime, error) {
	if err := validateStruct(cfg); err != nil {
		return Runtime{}, err
	}
	d := Defaults()
	rn := effName(cfg.Components.Reader, d.Components.Reader)
	wn := effName(cfg.Components.Writer, d.Components.Writer)
	newReader, ok := registry.Reader[rn]
	if !ok {
		return Runtime{}, fmt.Errorf("%w: reader %q not registered", contract.ErrConfigInvalid, rn)
	}
	newWriter, ok := registry.Writer[wn]
	if !ok {
		return Runtime{}, fmt.Errorf("%w: writer %q not registered", contract.ErrConfigInvalid, wn)
	}
	r, err := newReader(cfg.Options.Reader)
	if err != nil {
		return Runtime{}, fmt.Errorf("%w: options.reader: %w", contract.ErrConfigInvalid, err)
	}
	w, err := newWriter(cfg.Options.Writer)
	if err != nil {
		return Runtime{}, fmt.Errorf("%w: options.writer: %w", contract.ErrConfigInvalid, err)
	}
	nodes, err := registry.BuildNodes(cfg.Nodes)
	if err != nil {
		return Runtime{}, fmt.Errorf("%w: nodes: %w", contract.ErrConfigInvalid, err)
	}
	return Runtime{Reader: r, Writer: w, Nodes: nodes}, nil
}

func validateStruct(cfg Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", contract.ErrConfigInvalid, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		// Namespace 形如 Config.server.addr；去掉根类型名
		ns := fe.Namespace()
		if i := strings.IndexByte(ns, '.'); i >= 0 {
			ns = ns[i+1:]
		}
		msgs = append(msgs, fmt.Sprintf("%s: failed %s (got %v)", ns, fe.ActualTag(), fe.Value()))
	}
	return fmt.Errorf("%w: %s", contract.ErrConfigInvalid, strings.Join(msgs, "; "))
}

func effName(got, def string) string {
	if got == "" {
		return def
	}
	return got
}
