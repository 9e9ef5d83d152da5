//go:build windows

package display

import (
	"fmt"
	"image"
	"log"
	"runtime"
	"sync"
	"syscall"
	"unsafe"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"

	"screen-translate/src/config"
	"screen-translate/src/dpi"
)

var (
	user32                         = windows.NewLazySystemDLL("user32.dll")
	procSetLayeredWindowAttributes = user32.NewProc("SetLayeredWindowAttributes")
	procFillRect                   = user32.NewProc("FillRect")
	procMonitorFromPoint           = user32.NewProc("MonitorFromPoint")
)

const (
	wmRunOps           = win.WM_APP + 1
	lwaAlpha           = 0x2
	popupAlpha         = 221
	popupPadding       = 12
	monitorDefaultNear = 2
	textFormat         = win.DT_LEFT | win.DT_WORDBREAK | win.DT_NOPREFIX
)

func rgb(r, g, b byte) win.COLORREF {
	return win.COLORREF(uint32(r) | uint32(g)<<8 | uint32(b)<<16)
}

// active is the popup the window procedure dispatches to; there is one per process.
var active *Popup

// Popup is a topmost, non-activating, translucent result window.
type Popup struct {
	ops      chan func()
	hwnd     win.HWND
	autoHide *AutoHide

	mu       sync.Mutex
	theme    string
	text     string
	scale    dpi.Scale
	left     float64
	top      float64
	tracking bool
}

// NewPopup creates the window on its own locked OS thread and returns once it exists.
func NewPopup(theme string) (*Popup, error) {
	p := &Popup{ops: make(chan func(), 32), theme: theme, scale: dpi.Identity}
	p.autoHide = NewAutoHide(AutoHideAfter, func() { p.post(p.hideWindow) })
	ready := make(chan error, 1)
	go p.loop(ready)
	if err := <-ready; err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Popup) loop(ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	className := syscall.StringToUTF16Ptr("ScreenTranslateResult")
	wc := win.WNDCLASSEX{
		CbSize:        uint32(unsafe.Sizeof(win.WNDCLASSEX{})),
		LpfnWndProc:   syscall.NewCallback(popupWndProc),
		HInstance:     win.GetModuleHandle(nil),
		HCursor:       win.LoadCursor(0, win.MAKEINTRESOURCE(win.IDC_ARROW)),
		LpszClassName: className,
	}
	if win.RegisterClassEx(&wc) == 0 {
		ready <- fmt.Errorf("failed to register result window class")
		return
	}

	active = p
	p.hwnd = win.CreateWindowEx(
		win.WS_EX_TOPMOST|win.WS_EX_TOOLWINDOW|win.WS_EX_LAYERED|win.WS_EX_NOACTIVATE,
		className,
		syscall.StringToUTF16Ptr("Translation"),
		win.WS_POPUP,
		0, 0, int32(PopupWidth), int32(PopupMinHeight),
		0, 0, win.GetModuleHandle(nil), nil,
	)
	if p.hwnd == 0 {
		ready <- fmt.Errorf("failed to create result window")
		return
	}
	_, _, _ = procSetLayeredWindowAttributes.Call(uintptr(p.hwnd), 0, popupAlpha, lwaAlpha)
	ready <- nil

	var msg win.MSG
	for {
		ret := win.GetMessage(&msg, 0, 0, 0)
		if ret == 0 || ret == -1 {
			log.Printf("Popup: message loop exited (%d)", ret)
			return
		}
		win.TranslateMessage(&msg)
		win.DispatchMessage(&msg)
	}
}

// post runs f on the window thread.
func (p *Popup) post(f func()) {
	p.ops <- f
	win.PostMessage(p.hwnd, wmRunOps, 0, 0)
}

func (p *Popup) colors() (bg, fg win.COLORREF) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.theme == config.ThemeLight {
		return rgb(255, 255, 255), rgb(0, 0, 0)
	}
	return rgb(0, 0, 0), rgb(255, 255, 255)
}

func (p *Popup) SetTheme(theme string) {
	p.mu.Lock()
	p.theme = theme
	p.mu.Unlock()
	p.post(func() { win.InvalidateRect(p.hwnd, nil, true) })
}

func (p *Popup) SetResultText(text string) {
	p.mu.Lock()
	p.text = text
	p.mu.Unlock()
}

func (p *Popup) SetScale(s dpi.Scale) {
	if !s.Valid() {
		s = dpi.Identity
	}
	p.mu.Lock()
	p.scale = s
	p.mu.Unlock()
}

func (p *Popup) SetPosition(left, top float64) {
	p.mu.Lock()
	p.left, p.top = left, top
	p.mu.Unlock()
}

// physicalSize measures the wrapped text with the window font.
func (p *Popup) physicalSize() (int32, int32) {
	p.mu.Lock()
	text, scale := p.text, p.scale
	p.mu.Unlock()

	w := int32(PopupWidth * scale.X)
	minH := int32(PopupMinHeight * scale.Y)
	hdc := win.GetDC(0)
	defer win.ReleaseDC(0, hdc)
	old := win.SelectObject(hdc, win.GetStockObject(win.DEFAULT_GUI_FONT))
	defer win.SelectObject(hdc, old)

	rc := win.RECT{Right: w - 2*popupPadding}
	win.DrawTextEx(hdc, syscall.StringToUTF16Ptr(text), -1, &rc, textFormat|win.DT_CALCRECT, nil)
	h := rc.Bottom - rc.Top + 2*popupPadding
	if h < minH {
		h = minH
	}
	return w, h
}

func (p *Popup) Size() (float64, float64) {
	w, h := p.physicalSize()
	p.mu.Lock()
	scale := p.scale
	p.mu.Unlock()
	return float64(w) / scale.X, float64(h) / scale.Y
}

func (p *Popup) ShowAndAutoHide() {
	p.post(func() {
		w, h := p.physicalSize()
		p.mu.Lock()
		pt := p.scale.ToPhysical(p.left, p.top)
		p.mu.Unlock()
		win.SetWindowPos(p.hwnd, win.HWND_TOPMOST, int32(pt.X), int32(pt.Y), w, h,
			win.SWP_NOACTIVATE|win.SWP_SHOWWINDOW)
		win.InvalidateRect(p.hwnd, nil, true)
	})
	p.autoHide.Start()
}

func (p *Popup) Hide() {
	p.autoHide.Cancel()
	p.post(p.hideWindow)
}

func (p *Popup) hideWindow() {
	win.ShowWindow(p.hwnd, win.SW_HIDE)
}

func (p *Popup) paint(hwnd win.HWND) {
	var ps win.PAINTSTRUCT
	hdc := win.BeginPaint(hwnd, &ps)
	defer win.EndPaint(hwnd, &ps)

	bg, fg := p.colors()
	var rc win.RECT
	win.GetClientRect(hwnd, &rc)
	brush := win.CreateSolidBrush(bg)
	_, _, _ = procFillRect.Call(uintptr(hdc), uintptr(unsafe.Pointer(&rc)), uintptr(brush))
	win.DeleteObject(win.HGDIOBJ(brush))

	win.SetBkMode(hdc, win.TRANSPARENT)
	win.SetTextColor(hdc, fg)
	old := win.SelectObject(hdc, win.GetStockObject(win.DEFAULT_GUI_FONT))
	defer win.SelectObject(hdc, old)

	p.mu.Lock()
	text := p.text
	p.mu.Unlock()
	textRect := win.RECT{
		Left:   rc.Left + popupPadding,
		Top:    rc.Top + popupPadding,
		Right:  rc.Right - popupPadding,
		Bottom: rc.Bottom - popupPadding,
	}
	win.DrawTextEx(hdc, syscall.StringToUTF16Ptr(text), -1, &textRect, textFormat, nil)
}

func popupWndProc(hwnd win.HWND, msg uint32, wParam, lParam uintptr) uintptr {
	p := active
	if p == nil {
		return win.DefWindowProc(hwnd, msg, wParam, lParam)
	}
	switch msg {
	case wmRunOps:
		for {
			select {
			case f := <-p.ops:
				f()
			default:
				return 0
			}
		}
	case win.WM_PAINT:
		p.paint(hwnd)
		return 0
	case win.WM_ERASEBKGND:
		return 1
	case win.WM_MOUSEMOVE:
		if !p.tracking {
			tme := win.TRACKMOUSEEVENT{
				CbSize:    uint32(unsafe.Sizeof(win.TRACKMOUSEEVENT{})),
				DwFlags:   win.TME_LEAVE,
				HwndTrack: hwnd,
			}
			win.TrackMouseEvent(&tme)
			p.tracking = true
			p.autoHide.PointerEntered()
		}
		return 0
	case win.WM_MOUSELEAVE:
		p.tracking = false
		p.autoHide.PointerLeft()
		return 0
	case win.WM_RBUTTONUP:
		p.autoHide.Cancel()
		p.hideWindow()
		return 0
	}
	return win.DefWindowProc(hwnd, msg, wParam, lParam)
}

// WorkArea returns the work area, in device pixels, of the monitor nearest p.
func WorkArea(p image.Point) (image.Rectangle, error) {
	pt := uintptr(uint32(int32(p.X))) | uintptr(uint32(int32(p.Y)))<<32
	hmon, _, _ := procMonitorFromPoint.Call(pt, monitorDefaultNear)
	if hmon == 0 {
		return image.Rectangle{}, fmt.Errorf("no monitor near (%d,%d)", p.X, p.Y)
	}
	mi := win.MONITORINFO{CbSize: uint32(unsafe.Sizeof(win.MONITORINFO{}))}
	if !win.GetMonitorInfo(win.HMONITOR(hmon), &mi) {
		return image.Rectangle{}, fmt.Errorf("GetMonitorInfo failed")
	}
	r := mi.RcWork
	return image.Rect(int(r.Left), int(r.Top), int(r.Right), int(r.Bottom)), nil
}

// NewSurface returns the native popup, or a LogSurface if the window cannot be created.
func NewSurface(theme string) Surface {
	p, err := NewPopup(theme)
	if err != nil {
		log.Printf("Popup: %v; falling back to log output", err)
		return NewLogSurface()
	}
	return p
}
