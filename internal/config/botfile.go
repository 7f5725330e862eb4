package config

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ServiceTypeEndpoint 是 .bot 文件中 endpoint 服务的类型名。
const ServiceTypeEndpoint = "endpoint"

var (
	ErrServiceNotFound = errors.New("bot file: service not found")
	ErrBadSecret       = errors.New("bot file: secret does not decrypt the file")
)

// BotFile 是 .bot 配置文件。文件为 JSON，按 YAML 解析以兼容手写的 YAML 版本。
type BotFile struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Version     string       `yaml:"version"`
	Padlock     string       `yaml:"padlock"`
	Services    []BotService `yaml:"services"`
}

// BotService 是 .bot 文件中的单个服务条目。
type BotService struct {
	Type        string `yaml:"type"`
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	AppID       string `yaml:"appId"`
	AppPassword string `yaml:"appPassword"`
	Endpoint    string `yaml:"endpoint"`
}

// LoadBotFile 读取并解析 .bot 文件；secret 非空时解密其中的加密字段。
func LoadBotFile(path, secret string) (*BotFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, configError("bot_file_read", err)
	}
	bf, err := ParseBotFile(raw, secret)
	if err != nil {
		return nil, configError("bot_file_parse", fmt.Errorf("%s: %w", path, err))
	}
	return bf, nil
}

// ParseBotFile 解析 .bot 文件内容。
func ParseBotFile(raw []byte, secret string) (*BotFile, error) {
	var bf BotFile
	if err := yaml.Unmarshal(raw, &bf); err != nil {
		return nil, fmt.Errorf("decode bot file: %w", err)
	}
	if secret == "" {
		return &bf, nil
	}

	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, fmt.Errorf("decode bot file secret: %w", err)
	}
	if bf.Padlock != "" {
		if _, err := decryptString(bf.Padlock, key); err != nil {
			return nil, ErrBadSecret
		}
	}
	for i := range bf.Services {
		svc := &bf.Services[i]
		if svc.AppPassword == "" {
			continue
		}
		plain, err := decryptString(svc.AppPassword, key)
		if err != nil {
			return nil, fmt.Errorf("decrypt appPassword of service %q: %w", svc.Name, err)
		}
		svc.AppPassword = plain
	}
	return &bf, nil
}

// FindServiceByNameOrID 按名称或 id 查找服务。
func (b *BotFile) FindServiceByNameOrID(nameOrID string) (*BotService, error) {
	for i := range b.Services {
		svc := &b.Services[i]
		if svc.Name == nameOrID || svc.ID == nameOrID {
			return svc, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, nameOrID)
}

// Endpoint 返回名称或 id 匹配的 endpoint 服务。
func (b *BotFile) Endpoint(nameOrID string) (*BotService, error) {
	svc, err := b.FindServiceByNameOrID(nameOrID)
	if err != nil {
		return nil, err
	}
	if svc.Type != ServiceTypeEndpoint {
		return nil, fmt.Errorf("service %q is a %s service, not an endpoint", nameOrID, svc.Type)
	}
	return svc, nil
}

// decryptString 解密 "iv!ciphertext" 形式（均为 base64）的 AES-256-CBC 密文。
func decryptString(value string, key []byte) (string, error) {
	ivText, cipherText, ok := strings.Cut(value, "!")
	if !ok {
		return "", errors.New("encrypted value is not in iv!ciphertext form")
	}
	iv, err := base64.StdEncoding.DecodeString(ivText)
	if err != nil {
		return "", fmt.Errorf("decode iv: %w", err)
	}
	data, err := base64.StdEncoding.DecodeString(cipherText)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	if len(iv) != block.BlockSize() || len(data) == 0 || len(data)%block.BlockSize() != 0 {
		return "", errors.New("malformed ciphertext")
	}
	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, data)

	pad := int(out[len(out)-1])
	if pad == 0 || pad > block.BlockSize() || !bytes.Equal(out[len(out)-pad:], bytes.Repeat([]byte{byte(pad)}, pad)) {
		return "", errors.New("bad padding")
	}
	return string(out[:len(out)-pad]), nil
}
