package main

import (
	"embed"
	"log"
	"runtime"

	"github.com/jo12bar/vulkan-tutorial-go/renderer"
	"github.com/veandco/go-sdl2/sdl"
)

//go:embed shaders images meshes
var assets embed.FS

const enableValidationLayers = true

func run() error {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return err
	}
	defer sdl.Quit()

	window, err := sdl.CreateWindow("Model Viewer", sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, 800, 600, sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		return err
	}
	defer window.Destroy()

	r, err := renderer.New(window, renderer.Config{
		AppName:          "Model Viewer",
		EnableValidation: enableValidationLayers,

		Assets:             assets,
		VertexShaderPath:   "shaders/vert.spv",
		FragmentShaderPath: "shaders/frag.spv",
		MeshPath:           "meshes/crate.obj",
		MaterialPath:       "meshes/crate.mtl",
		TexturePath:        "images/crate.png",
	})
	if err != nil {
		r.Destroy()
		return err
	}
	defer r.Destroy()

	rendering := true

appLoop:
	for {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch e := event.(type) {
			case *sdl.QuitEvent:
				break appLoop
			case *sdl.KeyboardEvent:
				if e.Type == sdl.KEYDOWN {
					switch e.Keysym.Sym {
					case sdl.K_UP:
						r.SetModelCount(r.ModelCount() + 1)
					case sdl.K_DOWN:
						r.SetModelCount(r.ModelCount() - 1)
					}
				}
			case *sdl.WindowEvent:
				switch e.Event {
				case sdl.WINDOWEVENT_MINIMIZED:
					rendering = false
				case sdl.WINDOWEVENT_RESTORED:
					rendering = true
					r.NotifyResize()
				case sdl.WINDOWEVENT_RESIZED:
					w, h := window.GetSize()
					if w > 0 && h > 0 {
						rendering = true
						r.NotifyResize()
					} else {
						rendering = false
					}
				}
			}
		}
		if rendering {
			err := r.DrawFrame()
			if err != nil {
				return err
			}
		}
	}

	return r.WaitIdle()
}

func main() {
	runtime.LockOSThread()

	err := run()
	if err != nil {
		log.Fatalf("%+v\n", err)
	}
}
