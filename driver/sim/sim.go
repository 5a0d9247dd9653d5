// Package sim реализует driver.Driver в памяти процесса.
// Используется в тестах и для запуска сервиса без реального контроллера.
package sim

import (
	"sync"
	"time"

	"github.com/iwtcode/robotAdapter/driver"
	"github.com/iwtcode/robotAdapter/models"
)

// Имена операций для счетчиков вызовов и принудительных кодов.
const (
	OpCreateHandle  = "create_handle"
	OpDestroyHandle = "destroy_handle"
	OpPowerOn       = "power_on"
	OpPowerOff      = "power_off"
	OpEnable        = "enable"
	OpDisable       = "disable"
	OpReadJoints    = "read_joint_positions"
	OpReadPose      = "read_tool_pose"
	OpReadStatus    = "read_status"
	OpJog           = "jog"
	OpStopJog       = "stop_jog"
)

// Robot - симулятор контроллера робота.
type Robot struct {
	mu sync.Mutex

	nextHandle driver.Handle
	handles    map[driver.Handle]string
	connectRC  int

	joints models.JointPositions
	pose   models.ToolPose
	status models.RobotStatus

	readDelay     time.Duration
	jointFailures []int
	poseFailures  []int
	forced        map[string]int

	calls    map[string]int
	inFlight map[driver.Handle]int
	overlaps int
}

var _ driver.Driver = (*Robot)(nil)

// New создает симулятор. Первый выданный хендл равен firstHandle.
func New(firstHandle int) *Robot {
	if firstHandle <= 0 {
		firstHandle = 1
	}
	return &Robot{
		nextHandle: driver.Handle(firstHandle),
		handles:    make(map[driver.Handle]string),
		forced:     make(map[string]int),
		calls:      make(map[string]int),
		inFlight:   make(map[driver.Handle]int),
	}
}

// SetConnectResult задает код, который вернет CreateHandle.
func (r *Robot) SetConnectResult(rc int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connectRC = rc
}

// SetJoints задает текущие углы осей.
func (r *Robot) SetJoints(j models.JointPositions) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.joints = j
}

// SetPose задает текущую позу инструмента.
func (r *Robot) SetPose(p models.ToolPose) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pose = p
}

// SetStatus задает флаги состояния.
func (r *Robot) SetStatus(s models.RobotStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = s
}

// SetReadDelay задает задержку каждого вызова чтения.
func (r *Robot) SetReadDelay(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readDelay = d
}

// FailJointReads ставит в очередь коды для ближайших чтений углов.
func (r *Robot) FailJointReads(codes ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jointFailures = append(r.jointFailures, codes...)
}

// FailPoseReads ставит в очередь коды для ближайших чтений позы.
func (r *Robot) FailPoseReads(codes ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.poseFailures = append(r.poseFailures, codes...)
}

// ForceResult заставляет операцию op возвращать rc. rc == 0 снимает принуждение.
func (r *Robot) ForceResult(op string, rc int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rc == driver.OK {
		delete(r.forced, op)
		return
	}
	r.forced[op] = rc
}

// Calls возвращает число вызовов операции.
func (r *Robot) Calls(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[op]
}

// Overlaps возвращает число случаев одновременных вызовов по одному хендлу.
func (r *Robot) Overlaps() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.overlaps
}

// OpenHandles возвращает число неосвобожденных хендлов.
func (r *Robot) OpenHandles() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

// enter регистрирует вызов и возвращает принудительный код операции (если есть).
// Вызывается под r.mu.
func (r *Robot) enter(op string, h driver.Handle) int {
	r.calls[op]++
	r.inFlight[h]++
	if r.inFlight[h] > 1 {
		r.overlaps++
	}
	if _, ok := r.handles[h]; !ok {
		return driver.RCConnection
	}
	return r.forced[op]
}

func (r *Robot) leave(h driver.Handle) {
	r.inFlight[h]--
	if r.inFlight[h] <= 0 {
		delete(r.inFlight, h)
	}
}

func (r *Robot) CreateHandle(ip string) (int, driver.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[OpCreateHandle]++
	if r.connectRC != driver.OK {
		return r.connectRC, 0
	}
	if ip == "" {
		return driver.RCInvalidParameter, 0
	}
	h := r.nextHandle
	r.nextHandle++
	r.handles[h] = ip
	return driver.OK, h
}

func (r *Robot) DestroyHandle(h driver.Handle) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer r.leave(h)
	if rc := r.enter(OpDestroyHandle, h); rc != driver.OK {
		return rc
	}
	delete(r.handles, h)
	return driver.OK
}

func (r *Robot) PowerOn(h driver.Handle) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer r.leave(h)
	if rc := r.enter(OpPowerOn, h); rc != driver.OK {
		return rc
	}
	r.status.PoweredOn = true
	return driver.OK
}

func (r *Robot) PowerOff(h driver.Handle) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer r.leave(h)
	if rc := r.enter(OpPowerOff, h); rc != driver.OK {
		return rc
	}
	r.status.PoweredOn = false
	r.status.Enabled = false
	r.status.IsMoving = false
	return driver.OK
}

func (r *Robot) Enable(h driver.Handle) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer r.leave(h)
	if rc := r.enter(OpEnable, h); rc != driver.OK {
		return rc
	}
	if !r.status.PoweredOn {
		return driver.RCNotPowered
	}
	if r.status.InError {
		return driver.RCInError
	}
	r.status.Enabled = true
	return driver.OK
}

func (r *Robot) Disable(h driver.Handle) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer r.leave(h)
	if rc := r.enter(OpDisable, h); rc != driver.OK {
		return rc
	}
	r.status.Enabled = false
	r.status.IsMoving = false
	return driver.OK
}

// read выполняет общий для чтений путь: учет вызова, задержку вне блокировки.
func (r *Robot) read(op string, h driver.Handle) int {
	r.mu.Lock()
	rc := r.enter(op, h)
	delay := r.readDelay
	r.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	return rc
}

func (r *Robot) ReadJointPositions(h driver.Handle) (int, models.JointPositions) {
	rc := r.read(OpReadJoints, h)

	r.mu.Lock()
	defer r.mu.Unlock()
	defer r.leave(h)
	if rc != driver.OK {
		return rc, models.JointPositions{}
	}
	if len(r.jointFailures) > 0 {
		rc = r.jointFailures[0]
		r.jointFailures = r.jointFailures[1:]
		return rc, models.JointPositions{}
	}
	return driver.OK, r.joints
}

func (r *Robot) ReadToolPose(h driver.Handle) (int, models.ToolPose) {
	rc := r.read(OpReadPose, h)

	r.mu.Lock()
	defer r.mu.Unlock()
	defer r.leave(h)
	if rc != driver.OK {
		return rc, models.ToolPose{}
	}
	if len(r.poseFailures) > 0 {
		rc = r.poseFailures[0]
		r.poseFailures = r.poseFailures[1:]
		return rc, models.ToolPose{}
	}
	return driver.OK, r.pose
}

func (r *Robot) ReadStatus(h driver.Handle) (int, models.RobotStatus) {
	rc := r.read(OpReadStatus, h)

	r.mu.Lock()
	defer r.mu.Unlock()
	defer r.leave(h)
	if rc != driver.OK {
		return rc, models.RobotStatus{}
	}
	return driver.OK, r.status
}

func (r *Robot) Jog(h driver.Handle, axis int, mode models.JogMode, frame models.Frame, velocity, target float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer r.leave(h)
	if rc := r.enter(OpJog, h); rc != driver.OK {
		return rc
	}
	if axis < 0 || axis >= models.JointCount {
		return driver.RCInvalidParameter
	}
	if !r.status.PoweredOn {
		return driver.RCNotPowered
	}
	if !r.status.Enabled {
		return driver.RCNotEnabled
	}

	// Симулятор двигает ось мгновенно; в декартовых системах меняется только поза.
	if frame == models.FrameJoint {
		if mode == models.JogIncremental {
			r.joints[axis] += target
		} else {
			r.joints[axis] = target
		}
	}
	r.status.IsMoving = velocity != 0
	return driver.OK
}

func (r *Robot) StopJog(h driver.Handle, axis int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer r.leave(h)
	if rc := r.enter(OpStopJog, h); rc != driver.OK {
		return rc
	}
	if axis < 0 || axis >= models.JointCount {
		return driver.RCInvalidParameter
	}
	r.status.IsMoving = false
	return driver.OK
}
