package fetch

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"
)

var noDeadline time.Time

// SOCKS5 协议常量
const (
	socksVersion      = 0x05 // SOCKS5 版本号
	socksAuthNone     = 0x00 // 无需认证
	socksAuthUserPass = 0x02 // 用户名/密码认证
	socksAuthNoAccept = 0xff // 没有可接受的认证方法

	socksCmdConnect = 0x01 // CONNECT 命令
	socksATypIPv4   = 0x01 // 地址类型：IPv4
	socksATypDomain = 0x03 // 地址类型：域名
	socksATypIPv6   = 0x04 // 地址类型：IPv6

	socksReplySuccess = 0x00 // 响应：成功
)

// socks5Dialer 通过 SOCKS5 代理建立 TCP 连接。
// 目标地址以域名形式发送，由代理端解析。
type socks5Dialer struct {
	proxyAddr string // 代理服务器地址 (e.g., "127.0.0.1:1080")
	username  string
	password  string
	dialer    net.Dialer
}

// DialContext 连接代理服务器并完成协商、认证和 CONNECT 请求
func (d *socks5Dialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	conn, err := d.dialer.DialContext(ctx, "tcp", d.proxyAddr)
	if err != nil {
		return nil, fmt.Errorf("连接代理服务器失败: %w", err)
	}

	// 握手期间遵循 ctx 的截止时间
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	if err := d.handshake(conn, addr); err != nil {
		conn.Close()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	_ = conn.SetDeadline(noDeadline)
	return conn, nil
}

func (d *socks5Dialer) handshake(conn net.Conn, addr string) error {
	method, err := d.negotiate(conn)
	if err != nil {
		return fmt.Errorf("SOCKS5 协商失败: %w", err)
	}
	if method == socksAuthUserPass {
		if err := d.authenticate(conn); err != nil {
			return fmt.Errorf("SOCKS5 认证失败: %w", err)
		}
	}
	if err := d.connect(conn, addr); err != nil {
		return fmt.Errorf("SOCKS5 请求失败: %w", err)
	}
	return nil
}

// negotiate 发送支持的认证方法，返回服务器选择的方法
func (d *socks5Dialer) negotiate(conn net.Conn) (byte, error) {
	// VER + NMETHODS + METHODS
	methods := []byte{socksAuthNone}
	if d.username != "" || d.password != "" {
		methods = append(methods, socksAuthUserPass)
	}
	req := append([]byte{socksVersion, byte(len(methods))}, methods...)
	if _, err := conn.Write(req); err != nil {
		return 0, err
	}

	// VER + METHOD
	reply := make([]byte, 2)
	if _, err := io.ReadFull(conn, reply); err != nil {
		return 0, err
	}
	if reply[0] != socksVersion {
		return 0, fmt.Errorf("SOCKS 版本不匹配: %d", reply[0])
	}
	switch reply[1] {
	case socksAuthNone:
		return socksAuthNone, nil
	case socksAuthUserPass:
		if d.username == "" && d.password == "" {
			return 0, fmt.Errorf("代理要求认证但未提供用户名")
		}
		return socksAuthUserPass, nil
	case socksAuthNoAccept:
		return 0, fmt.Errorf("代理不接受任何认证方法")
	default:
		return 0, fmt.Errorf("服务器选择了不支持的认证方法: %d", reply[1])
	}
}

// authenticate 用户名/密码认证（RFC 1929）
func (d *socks5Dialer) authenticate(conn net.Conn) error {
	if len(d.username) > 255 || len(d.password) > 255 {
		return fmt.Errorf("用户名或密码过长")
	}
	// U_VER + ULEN + UNAME + PLEN + PASSWD
	req := []byte{0x01, byte(len(d.username))}
	req = append(req, d.username...)
	req = append(req, byte(len(d.password)))
	req = append(req, d.password...)
	if _, err := conn.Write(req); err != nil {
		return err
	}

	reply := make([]byte, 2)
	if _, err := io.ReadFull(conn, reply); err != nil {
		return err
	}
	if reply[0] != 0x01 {
		return fmt.Errorf("认证响应版本错误: %d", reply[0])
	}
	if reply[1] != socksReplySuccess {
		return fmt.Errorf("认证失败，状态码: %d", reply[1])
	}
	return nil
}

// connect 发送 CONNECT 请求并读取完整的响应
func (d *socks5Dialer) connect(conn net.Conn, addr string) error {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("地址格式错误: %w", err)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return fmt.Errorf("端口格式错误: %w", err)
	}

	// VER + CMD + RSV + ATYP + DST.ADDR + DST.PORT
	req := []byte{socksVersion, socksCmdConnect, 0x00}
	if ip := net.ParseIP(host); ip != nil {
		if ip4 := ip.To4(); ip4 != nil {
			req = append(req, socksATypIPv4)
			req = append(req, ip4...)
		} else {
			req = append(req, socksATypIPv6)
			req = append(req, ip.To16()...)
		}
	} else {
		if len(host) > 255 {
			return fmt.Errorf("域名过长: %s", host)
		}
		req = append(req, socksATypDomain, byte(len(host)))
		req = append(req, host...)
	}
	req = binary.BigEndian.AppendUint16(req, uint16(port))
	if _, err := conn.Write(req); err != nil {
		return err
	}

	// VER + REP + RSV + ATYP
	reply := make([]byte, 4)
	if _, err := io.ReadFull(conn, reply); err != nil {
		return err
	}
	if reply[0] != socksVersion {
		return fmt.Errorf("SOCKS 版本不匹配: %d", reply[0])
	}
	if reply[1] != socksReplySuccess {
		return fmt.Errorf("代理请求被拒绝，状态码: %d", reply[1])
	}

	var addrLen int
	switch reply[3] {
	case socksATypIPv4:
		addrLen = net.IPv4len
	case socksATypIPv6:
		addrLen = net.IPv6len
	case socksATypDomain:
		lenBuf := make([]byte, 1)
		if _, err := io.ReadFull(conn, lenBuf); err != nil {
			return err
		}
		addrLen = int(lenBuf[0])
	default:
		return fmt.Errorf("不支持的地址类型: %d", reply[3])
	}

	// 丢弃 BND.ADDR + BND.PORT
	if _, err := io.ReadFull(conn, make([]byte, addrLen+2)); err != nil {
		return err
	}
	return nil
}
