//go:build windows

package platform

import (
	"fmt"
	"unsafe"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"
)

var (
	shell32             = windows.NewLazySystemDLL("shell32.dll")
	procSHAppBarMessage = shell32.NewProc("SHAppBarMessage")

	taskbarClass = windows.StringToUTF16Ptr("Shell_TrayWnd")
)

// appBarData mirrors APPBARDATA. Field order and widths follow the Win32
// declaration; Go's natural alignment matches the C layout on 386 and amd64.
type appBarData struct {
	cbSize           uint32
	hWnd             uintptr
	uCallbackMessage uint32
	uEdge            uint32
	rc               win.RECT
	lParam           uintptr
}

type appBarTransport struct{}

// NewTransport returns the SHAppBarMessage transport.
func NewTransport() Transport {
	return appBarTransport{}
}

// Send resolves the taskbar window on every call and delivers the request.
func (appBarTransport) Send(req Request) (Response, error) {
	if err := req.Validate(); err != nil {
		return Response{}, err
	}
	if err := procSHAppBarMessage.Find(); err != nil {
		return Response{}, fmt.Errorf("loading SHAppBarMessage: %w", err)
	}

	hwnd := win.FindWindow(taskbarClass, nil)
	if hwnd == 0 {
		return Response{}, ErrTaskbarNotFound
	}

	abd := appBarData{hWnd: uintptr(hwnd), lParam: uintptr(req.State)}
	abd.cbSize = uint32(unsafe.Sizeof(abd))

	r, _, _ := procSHAppBarMessage.Call(uintptr(req.Message), uintptr(unsafe.Pointer(&abd)))
	return Response{Version: req.Version, Handle: uintptr(hwnd), Result: r}, nil
}

// IsElevated reports whether the process token is elevated.
func IsElevated() (bool, error) {
	var token windows.Token
	err := windows.OpenProcessToken(windows.CurrentProcess(), windows.TOKEN_QUERY, &token)
	if err != nil {
		return false, fmt.Errorf("cannot check elevation: %w", err)
	}
	defer token.Close()
	return token.IsElevated(), nil
}
