// Package xsys 读取进程级系统资源。
//
// [ProcessCPUTime] 返回当前进程累计消耗的 CPU 时间（用户态 + 内核态），
// Linux / BSD / macOS 通过 clock_gettime(CLOCK_PROCESS_CPUTIME_ID) 实现，
// 其他平台返回 [ErrUnsupportedPlatform]。
package xsys
